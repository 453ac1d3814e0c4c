package valueobject

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrNonFinitePrice is returned when a float price is NaN or infinite
var ErrNonFinitePrice = errors.New("price must be a finite number")

// Price is a per-share amount produced by the valuation model.
// It is immutable - all operations return new Price instances
type Price struct {
	amount decimal.Decimal
}

// NewPrice creates a Price from a decimal amount
func NewPrice(amount decimal.Decimal) Price {
	return Price{amount: amount}
}

// NewPriceFromFloat creates a Price from a float64 value.
// decimal.NewFromFloat panics on NaN and Inf, so those are rejected here.
func NewPriceFromFloat(amount float64) (Price, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Price{}, ErrNonFinitePrice
	}
	return Price{amount: decimal.NewFromFloat(amount)}, nil
}

// Amount returns the decimal amount
func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// IsPositive returns true if the price is greater than zero
func (p Price) IsPositive() bool {
	return p.amount.IsPositive()
}

// Round rounds to the specified decimal places (half away from zero)
func (p Price) Round(places int32) Price {
	return Price{amount: p.amount.Round(places)}
}

// Float64 returns the amount as float64
func (p Price) Float64() float64 {
	f, _ := p.amount.Float64()
	return f
}

// PercentFrom returns the percentage difference of p relative to base,
// e.g. 110 against 100 gives 10. A zero base returns an error.
func (p Price) PercentFrom(base Price) (decimal.Decimal, error) {
	if base.amount.IsZero() {
		return decimal.Zero, errors.New("cannot compare against a zero price")
	}
	return p.amount.Sub(base.amount).Div(base.amount).Mul(hundred), nil
}

// String returns the string representation
func (p Price) String() string {
	return p.amount.String()
}

// StringFixed returns the amount with fixed decimal places
func (p Price) StringFixed(places int32) string {
	return p.amount.StringFixed(places)
}
