// Package amount turns the loosely typed amount sent by the storefront into reais.
//
// Inputs arrive as Brazilian formatted strings ("1.234,56"), integer cents
// (1990) or decimal reais (19.9). Integers of 100 or more are read as cents;
// anything else is read as reais. The rule cannot tell R$150 from 150 cents,
// so callers send integer cents consistently.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var (
	DefaultReais = decimal.RequireFromString("19.90")

	centsThreshold = decimal.NewFromInt(100)
)

// Normalize returns the value in reais rounded to the cent.
func Normalize(value any) (decimal.Decimal, error) {
	if value == nil {
		return DefaultReais, nil
	}

	num, err := toDecimal(value)
	if err != nil {
		return decimal.Zero, err
	}

	if num.GreaterThanOrEqual(centsThreshold) && num.IsInteger() {
		return num.Shift(-2), nil
	}

	// decimal rounds half away from zero
	return num.Round(2), nil
}

// Cents converts reais to integer minor units, rounding to the nearest cent.
func Cents(reais decimal.Decimal) int64 {
	return reais.Shift(2).Round(0).IntPart()
}

// FromCents is the inverse of Cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		return parseString(v)
	case json.Number:
		return parseString(v.String())
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, value)
	}
}

func parseString(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	// Brazilian formatting: '.' groups thousands, ',' separates decimals.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}
