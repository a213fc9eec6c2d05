package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	ProviderSunize   = "sunize"
	ProviderViperPay = "viperpay"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database

	Gateway  Gateway  `envPrefix:"GATEWAY_"`
	Sunize   Sunize   `envPrefix:"SUNIZE_"`
	ViperPay ViperPay `envPrefix:"VIPERPAY_"`
	Utmify   Utmify   `envPrefix:"UTMIFY_"`
}

type Gateway struct {
	Provider string        `env:"PROVIDER" envDefault:"sunize"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Sunize struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.sunize.com.br"`
	APIKey     string `env:"API_KEY"`
	APISecret  string `env:"API_SECRET"`
}

type ViperPay struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.viperpay.org"`
	APISecret  string `env:"API_SECRET"`
}

type Utmify struct {
	BaseApiURL string        `env:"BASE_API_URL" envDefault:"https://api.utmify.com.br"`
	APIToken   string        `env:"API_TOKEN"`
	Platform   string        `env:"PLATFORM"` // defaults to the gateway name
	QueueSize  int           `env:"QUEUE_SIZE" envDefault:"256"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
	IsTest     bool          `env:"IS_TEST" envDefault:"false"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL    string `env:"DATABASE_URL" envDefault:"privacy.db"`
}

// Storefront configures cmd/storefront, the checkout driver.
type Storefront struct {
	APIURL         string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8080"`
	CatalogPath    string        `env:"STOREFRONT_CATALOG_PATH"`
	PollInterval   time.Duration `env:"STOREFRONT_POLL_INTERVAL" envDefault:"5s"`
	ThankYouURL    string        `env:"STOREFRONT_THANK_YOU_URL" envDefault:"/obrigado"`
	RedisAddr      string        `env:"STOREFRONT_REDIS_ADDR"`
	AttributionTTL time.Duration `env:"STOREFRONT_ATTRIBUTION_TTL" envDefault:"720h"`
	Log            Log
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Validate reports missing credentials for the selected gateway. The attribution
// token is optional: without it events are built and logged but not delivered.
func (c *Config) Validate() error {
	var errs []error

	switch c.Gateway.Provider {
	case ProviderSunize:
		if c.Sunize.APIKey == "" || c.Sunize.APISecret == "" {
			errs = append(errs, errors.New("SUNIZE_API_KEY and SUNIZE_API_SECRET are required"))
		}
	case ProviderViperPay:
		if c.ViperPay.APISecret == "" {
			errs = append(errs, errors.New("VIPERPAY_API_SECRET is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GATEWAY_PROVIDER %q", c.Gateway.Provider))
	}

	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}
