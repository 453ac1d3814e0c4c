package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is wrapped by every Number decoding error.
var ErrInvalidNumber = errors.New("invalid number")

// Number is a request field that accepts a JSON number or a numeric string,
// e.g. 12.5 and "12.5" decode to the same value. Parsing is exact.
type Number struct {
	decimal.Decimal
}

// NewNumber wraps a decimal
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// NumberFromFloat wraps a float64
func NumberFromFloat(f float64) Number {
	return Number{Decimal: decimal.NewFromFloat(f)}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidNumber)
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w %s", ErrInvalidNumber, data)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return fmt.Errorf("%w: empty string", ErrInvalidNumber)
		}
	} else {
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("%w %s", ErrInvalidNumber, data)
		}
		raw = num.String()
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w %q", ErrInvalidNumber, raw)
	}
	n.Decimal = d
	return nil
}

// MarshalJSON renders a bare JSON number
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// Float64 returns the value as float64
func (n Number) Float64() float64 {
	f, _ := n.Decimal.Float64()
	return f
}
