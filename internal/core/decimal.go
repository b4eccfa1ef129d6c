package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseQuantize parses an amount_quantize config value (a decimal increment
// string like "0.01") into its number of decimal places. An empty string
// means "no quantization configured". Returns an error for a malformed
// literal, which callers should surface as a configuration error.
func ParseQuantize(raw string) (places int32, configured bool, err error) {
	if raw == "" {
		return 0, false, nil
	}
	d, parseErr := decimal.NewFromString(raw)
	if parseErr != nil {
		return 0, false, fmt.Errorf("invalid amount_quantize %q: %w", raw, parseErr)
	}
	if d.IsNegative() || d.IsZero() {
		return 0, false, fmt.Errorf("amount_quantize %q must be a positive increment", raw)
	}
	return -d.Exponent(), true, nil
}

// Quantize rounds d to the given number of decimal places using banker's
// rounding (round-half-to-even), per spec.md §9. If configured is false
// (quantization is not configured), d is returned unchanged.
func Quantize(d decimal.Decimal, places int32, configured bool) decimal.Decimal {
	if !configured {
		return d
	}
	return d.RoundBank(places)
}

// DecimalsEqual compares two amounts for exact equality after optional
// quantization, the comparison every rule in the catalog uses per
// spec.md §4.1 preamble step 2.
func DecimalsEqual(a, b decimal.Decimal, places int32, configured bool) bool {
	return Quantize(a, places, configured).Equal(Quantize(b, places, configured))
}

// AllowedVariance computes max(floor, |amount| * pct) per spec.md §4.4.3,
// treating an absent pct (nil) as zero contribution.
func AllowedVariance(floor decimal.Decimal, amount decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	pctComponent := decimal.Zero
	if pct != nil {
		pctComponent = amount.Abs().Mul(*pct)
	}
	if floor.GreaterThan(pctComponent) {
		return floor
	}
	return pctComponent
}
