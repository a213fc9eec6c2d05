// Package catalog holds the storefront's plans and order bumps.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Plan struct {
	Name  string
	Price decimal.Decimal // reais
}

type OrderBump struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal // reais
	Image       string
}

type Catalog struct {
	Plans      []Plan
	OrderBumps []OrderBump
}

type fileCatalog struct {
	Plans []struct {
		Name  string `yaml:"name"`
		Price string `yaml:"price"`
	} `yaml:"plans"`
	OrderBumps []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
		Image       string `yaml:"image"`
	} `yaml:"order_bumps"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file, falling back to the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var raw fileCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{}
	for _, p := range raw.Plans {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("plan %q price: %w", p.Name, err)
		}
		c.Plans = append(c.Plans, Plan{Name: p.Name, Price: price})
	}

	seen := make(map[string]bool)
	for _, b := range raw.OrderBumps {
		if b.ID == "" {
			return nil, errors.New("order bump without id")
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicate order bump %q", b.ID)
		}
		seen[b.ID] = true

		price, err := decimal.NewFromString(b.Price)
		if err != nil {
			return nil, fmt.Errorf("order bump %q price: %w", b.ID, err)
		}
		c.OrderBumps = append(c.OrderBumps, OrderBump{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Price:       price,
			Image:       b.Image,
		})
	}

	if len(c.Plans) == 0 {
		return nil, errors.New("catalog has no plans")
	}
	return c, nil
}

func (c *Catalog) Plan(name string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *Catalog) Bump(id string) (OrderBump, bool) {
	for _, b := range c.OrderBumps {
		if b.ID == id {
			return b, true
		}
	}
	return OrderBump{}, false
}
