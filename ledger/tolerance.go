package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ToleranceConfig holds the configuration used to decide whether a transaction
// residual is small enough to ignore.
type ToleranceConfig struct {
	// defaults maps currency to default tolerance ("*" is the wildcard).
	defaults map[string]decimal.Decimal
	// multiplier is applied to the inferred tolerance.
	multiplier decimal.Decimal
}

var defaultTolerance = decimal.New(5, -3)

// NewToleranceConfig creates the default configuration: 0.005 for all currencies
// and a 0.5 multiplier.
func NewToleranceConfig() *ToleranceConfig {
	return &ToleranceConfig{
		defaults:   map[string]decimal.Decimal{"*": defaultTolerance},
		multiplier: decimal.New(5, -1),
	}
}

// parseToleranceDefaults parses an inferred_tolerance_default value, a comma
// separated list of CURRENCY:TOLERANCE pairs such as "*:0.005,JPY:0.5".
func parseToleranceDefaults(value string) (map[string]decimal.Decimal, error) {
	defaults := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(value, ",") {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid inferred_tolerance_default %q, expected CURRENCY:TOLERANCE", entry)
		}
		currency := strings.TrimSpace(parts[0])
		tolerance, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid tolerance value in %q: %w", entry, err)
		}
		if currency == "" || tolerance.IsNegative() {
			return nil, fmt.Errorf("invalid inferred_tolerance_default %q", entry)
		}
		defaults[currency] = tolerance
	}
	return defaults, nil
}

func parseToleranceMultiplier(value string) (decimal.Decimal, error) {
	multiplier, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tolerance_multiplier %q: %w", value, err)
	}
	if !multiplier.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid tolerance_multiplier %q: must be positive", value)
	}
	return multiplier, nil
}

// SetDefaults merges the defaults parsed from an inferred_tolerance_default value.
func (c *ToleranceConfig) SetDefaults(value string) error {
	defaults, err := parseToleranceDefaults(value)
	if err != nil {
		return err
	}
	for currency, tolerance := range defaults {
		c.defaults[currency] = tolerance
	}
	return nil
}

// SetMultiplier sets the multiplier from a tolerance_multiplier value.
func (c *ToleranceConfig) SetMultiplier(value string) error {
	multiplier, err := parseToleranceMultiplier(value)
	if err != nil {
		return err
	}
	c.multiplier = multiplier
	return nil
}

// InferTolerance calculates the tolerance for currency from the precision of
// the amounts involved:
//  1. Find the smallest exponent across all non-zero amounts
//  2. tolerance = 10^minExp * multiplier
//  3. Without fractional amounts, use the default tolerance for the currency
func (c *ToleranceConfig) InferTolerance(amounts []decimal.Decimal, currency string) decimal.Decimal {
	minExp := int32(0)
	found := false
	for _, amount := range amounts {
		if amount.IsZero() {
			continue
		}
		if exp := amount.Exponent(); !found || exp < minExp {
			minExp = exp
			found = true
		}
	}
	if !found || minExp >= 0 {
		return c.Default(currency)
	}
	return decimal.New(1, minExp).Mul(c.multiplier)
}

// Default returns the default tolerance for a currency, checking the currency
// first and then the wildcard.
func (c *ToleranceConfig) Default(currency string) decimal.Decimal {
	if tolerance, ok := c.defaults[currency]; ok {
		return tolerance
	}
	if tolerance, ok := c.defaults["*"]; ok {
		return tolerance
	}
	return defaultTolerance
}

// withinTolerance reports whether |a - b| <= tolerance.
func withinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
