package athmovil

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountRule bounds a monetary value. Negative amounts are always rejected.
type AmountRule struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
	// Positive additionally rejects zero.
	Positive bool
}

var (
	totalRule    = AmountRule{Min: &MinTotal, Max: &MaxTotal}
	subtotalRule = AmountRule{Max: &MaxTotal}
	priceRule    = AmountRule{}
	refundRule   = AmountRule{Positive: true}
)

// NormalizeAmount parses value as an exact decimal, checks it against rule and formats
// it with exactly two fractional digits, rounding half away from zero.
func NormalizeAmount(value any, rule AmountRule) (string, error) {
	d, err := ParseDecimal(value)
	if err != nil {
		return "", err
	}

	switch {
	case d.IsNegative():
		return "", fmt.Errorf("%w: amount cannot be negative", ErrInvalidAmount)
	case rule.Positive && d.IsZero():
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	case rule.Min != nil && d.LessThan(*rule.Min):
		return "", fmt.Errorf("%w: must be at least %s", ErrInvalidAmount, rule.Min.StringFixed(2))
	case rule.Max != nil && d.GreaterThan(*rule.Max):
		return "", fmt.Errorf("%w: cannot exceed %s", ErrInvalidAmount, rule.Max.StringFixed(2))
	}

	return d.StringFixed(2), nil
}

// ParseDecimal converts strings, integers, floats, json.Number and decimals into an
// exact decimal. Floats use their shortest decimal representation.
func ParseDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return parseDecimalString(v)
	case json.Number:
		return parseDecimalString(v.String())
	case float64:
		return decimalFromFloat(v)
	case float32:
		return decimalFromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int8:
		return decimal.NewFromInt(int64(v)), nil
	case int16:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint8:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint16:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	case nil:
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, value)
	}
}

func parseDecimalString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount format: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

func decimalFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: invalid amount format: %v", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}

var defaultFeePercentage = decimal.RequireFromString("2.5")

// CalculateFee returns pct percent of amount rounded to cents. A zero pct uses the
// standard 2.5% rate.
func CalculateFee(amount, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		pct = defaultFeePercentage
	}
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

// CalculateNetAmount subtracts fee from total. A nil fee is computed at the standard rate.
func CalculateNetAmount(total decimal.Decimal, fee *decimal.Decimal) decimal.Decimal {
	if fee == nil {
		f := CalculateFee(total, decimal.Zero)
		fee = &f
	}
	return total.Sub(*fee)
}
