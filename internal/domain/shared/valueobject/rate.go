package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RateUnit identifies how a rate was written by the caller
type RateUnit string

const (
	RateUnitDecimal RateUnit = "decimal" // 0.08 means 8%
	RateUnitPercent RateUnit = "percent" // 8 means 8%
)

var hundred = decimal.NewFromInt(100)

// ParseRateUnit parses a rate unit name. An empty string yields RateUnitDecimal.
func ParseRateUnit(s string) (RateUnit, error) {
	switch RateUnit(strings.ToLower(strings.TrimSpace(s))) {
	case "", RateUnitDecimal:
		return RateUnitDecimal, nil
	case RateUnitPercent:
		return RateUnitPercent, nil
	default:
		return "", fmt.Errorf("unknown rate unit %q", s)
	}
}

// Rate is an annual rate held in decimal form.
// It is immutable - all operations return new Rate instances
type Rate struct {
	value decimal.Decimal
}

// NewRate creates a Rate from an amount expressed in the given unit
func NewRate(amount decimal.Decimal, unit RateUnit) (Rate, error) {
	switch unit {
	case RateUnitDecimal, "":
		return Rate{value: amount}, nil
	case RateUnitPercent:
		return Rate{value: amount.Div(hundred)}, nil
	default:
		return Rate{}, fmt.Errorf("unknown rate unit %q", unit)
	}
}

// NewRateFromString creates a Rate from a string representation
func NewRateFromString(amount string, unit RateUnit) (Rate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate string: %w", err)
	}
	return NewRate(d, unit)
}

// NewRateFromFloat creates a Rate from a decimal-form float64
func NewRateFromFloat(value float64) (Rate, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Rate{}, errors.New("rate must be a finite number")
	}
	return Rate{value: decimal.NewFromFloat(value)}, nil
}

// Decimal returns the rate in decimal form
func (r Rate) Decimal() decimal.Decimal {
	return r.value
}

// Percent returns the rate expressed in percent
func (r Rate) Percent() decimal.Decimal {
	return r.value.Mul(hundred)
}

// Float64 returns the decimal-form rate as float64
func (r Rate) Float64() float64 {
	f, _ := r.value.Float64()
	return f
}

// Add returns a new Rate shifted by other
func (r Rate) Add(other Rate) Rate {
	return Rate{value: r.value.Add(other.value)}
}

// Round rounds the rate to the given decimal places (half away from zero)
func (r Rate) Round(places int32) Rate {
	return Rate{value: r.value.Round(places)}
}

// Equals checks if two rates are equal
func (r Rate) Equals(other Rate) bool {
	return r.value.Equal(other.value)
}

// String returns the decimal form, e.g. "0.08"
func (r Rate) String() string {
	return r.value.String()
}

// MarshalJSON renders the rate as a bare JSON number
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string in decimal form
func (r *Rate) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		var s string
		if err2 := json.Unmarshal(data, &s); err2 != nil {
			return fmt.Errorf("invalid rate: %w", err)
		}
		raw = json.Number(s)
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}
	r.value = d
	return nil
}
