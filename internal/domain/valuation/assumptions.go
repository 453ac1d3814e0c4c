package valuation

import (
	"fmt"
	"math"
)

// Field names used in validation errors. They match the request field names
// so a caller can point at the offending input.
const (
	FieldCurrentStockPrice  = "current_stock_price"
	FieldFreeCashFlow       = "free_cash_flow"
	FieldSharesOutstanding  = "shares_outstanding"
	FieldWACC               = "wacc"
	FieldTerminalGrowthRate = "terminal_growth_rate"
	FieldProjectionYears    = "projection_years"
	FieldEnterpriseValue    = "enterprise_value"
	FieldCustomGrowthRate   = "custom_growth_rate"
)

// MaxProjectionYears bounds the explicit forecast horizon.
const MaxProjectionYears = 50

// Assumptions are the inputs of a single valuation. All rates are in
// decimal form (0.08, not 8).
type Assumptions struct {
	CurrentStockPrice  float64
	FreeCashFlow       float64
	SharesOutstanding  float64
	WACC               float64
	TerminalGrowthRate float64
	ProjectionYears    int
	// EnterpriseValue is a reference figure. It is never a solver target
	// for the implied growth rate; see CheckEnterpriseValue.
	EnterpriseValue float64
}

// Validate checks every constraint and returns ValidationErrors listing all
// failures, or nil.
func (a Assumptions) Validate() error {
	var errs ValidationErrors

	positive := func(field string, v float64) {
		if err := checkPositive(field, v); err != nil {
			errs = append(errs, err)
		}
	}
	positive(FieldCurrentStockPrice, a.CurrentStockPrice)
	positive(FieldFreeCashFlow, a.FreeCashFlow)
	positive(FieldSharesOutstanding, a.SharesOutstanding)
	positive(FieldEnterpriseValue, a.EnterpriseValue)

	waccOK := checkOpenUnit(FieldWACC, a.WACC)
	if waccOK != nil {
		errs = append(errs, waccOK)
	}
	tgOK := checkOpenUnit(FieldTerminalGrowthRate, a.TerminalGrowthRate)
	if tgOK != nil {
		errs = append(errs, tgOK)
	}
	if waccOK == nil && tgOK == nil && a.TerminalGrowthRate >= a.WACC {
		errs = append(errs, &ValidationError{
			Field:  FieldTerminalGrowthRate,
			Reason: "must be less than wacc",
		})
	}

	if a.ProjectionYears < 1 || a.ProjectionYears > MaxProjectionYears {
		errs = append(errs, &ValidationError{
			Field:  FieldProjectionYears,
			Reason: fmt.Sprintf("must be between 1 and %d", MaxProjectionYears),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// WithFreeCashFlow returns a copy with the base free cash flow replaced.
func (a Assumptions) WithFreeCashFlow(fcf float64) Assumptions {
	a.FreeCashFlow = fcf
	return a
}

// ValidateCustomGrowthRate rejects growth rates at or beyond +/-100%.
func ValidateCustomGrowthRate(g float64) error {
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return ValidationErrors{{Field: FieldCustomGrowthRate, Reason: "must be a finite number"}}
	}
	if g <= -1 || g >= 1 {
		return ValidationErrors{{Field: FieldCustomGrowthRate, Reason: "must be greater than -100% and less than 100%"}}
	}
	return nil
}

func checkPositive(field string, v float64) *ValidationError {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &ValidationError{Field: field, Reason: "must be a finite number"}
	case v <= 0:
		return &ValidationError{Field: field, Reason: "must be positive"}
	}
	return nil
}

func checkOpenUnit(field string, v float64) *ValidationError {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &ValidationError{Field: field, Reason: "must be a finite number"}
	case v <= 0 || v >= 1:
		return &ValidationError{Field: field, Reason: "must be between 0 and 1 (exclusive), in decimal form"}
	}
	return nil
}
