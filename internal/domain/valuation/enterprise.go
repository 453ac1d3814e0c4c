package valuation

import (
	"context"
)

// EnterpriseValueCheck compares the reported enterprise value with the model.
type EnterpriseValueCheck struct {
	ReportedEnterpriseValue float64
	// ModelValue is the total DCF value at the market-implied growth rate.
	ModelValue float64
	// DifferencePercent is (ModelValue - Reported) / Reported * 100.
	DifferencePercent float64
	// ImpliedGrowthRate makes the total DCF value equal the reported
	// enterprise value. Only meaningful when Converged is true.
	ImpliedGrowthRate float64
	Converged         bool
	Reason            string
}

// CheckEnterpriseValue cross-checks a.EnterpriseValue against the model at
// the market-implied growth rate. It never fails the calculation: a solver
// failure is reported through Converged and Reason.
func (s *Solver) CheckEnterpriseValue(ctx context.Context, a Assumptions, impliedGrowth float64) EnterpriseValueCheck {
	check := EnterpriseValueCheck{ReportedEnterpriseValue: a.EnterpriseValue}

	b, err := Evaluate(a, impliedGrowth)
	if err != nil {
		check.Reason = err.Error()
		return check
	}
	check.ModelValue = b.EquityValue
	if a.EnterpriseValue > 0 {
		check.DifferencePercent = (b.EquityValue - a.EnterpriseValue) / a.EnterpriseValue * 100
	}

	root, err := s.SolveFor(ctx, a, a.EnterpriseValue/a.SharesOutstanding)
	if err != nil {
		check.Reason = err.Error()
		return check
	}
	check.ImpliedGrowthRate = root.GrowthRate
	check.Converged = true
	return check
}
