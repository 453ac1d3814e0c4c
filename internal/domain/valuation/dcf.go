// Package valuation implements the reverse discounted-cash-flow engine:
// a per-share DCF value, a solver for the growth rate implied by a market
// price, a sensitivity grid around that rate, and a short forward price path.
//
// Everything here is pure and safe for concurrent use.
package valuation

import (
	"math"
)

// Breakdown is the decomposition of a single DCF evaluation.
type Breakdown struct {
	GrowthRate              float64
	PresentValueOfCashFlows float64
	PresentValueOfTerminal  float64
	EquityValue             float64
	PerShare                float64
	// Slope is dPerShare/dGrowthRate at GrowthRate.
	Slope float64
}

// Value returns the per-share DCF value of a at growth rate g.
//
// Free cash flow grows at g for ProjectionYears years, then a Gordon growth
// terminal value at TerminalGrowthRate is added; everything is discounted at
// WACC. Results are float64: values beyond roughly 1e15 lose cent precision.
func Value(a Assumptions, g float64) (float64, error) {
	b, err := Evaluate(a, g)
	if err != nil {
		return 0, err
	}
	return b.PerShare, nil
}

// Evaluate is Value with the full breakdown and the analytic slope.
func Evaluate(a Assumptions, g float64) (Breakdown, error) {
	spread := a.WACC - a.TerminalGrowthRate
	switch {
	case math.IsNaN(g) || math.IsInf(g, 0):
		return Breakdown{}, &UndefinedValuationError{Reason: "growth rate is not finite", GrowthRate: g}
	case g <= -1:
		return Breakdown{}, &UndefinedValuationError{Reason: "growth rate at or below -100%", GrowthRate: g}
	case !(spread > 0):
		return Breakdown{}, &UndefinedValuationError{Reason: "wacc must exceed terminal growth rate", GrowthRate: g}
	case a.WACC <= -1:
		return Breakdown{}, &UndefinedValuationError{Reason: "wacc at or below -100%", GrowthRate: g}
	case !(a.SharesOutstanding > 0):
		return Breakdown{}, &UndefinedValuationError{Reason: "shares outstanding must be positive", GrowthRate: g}
	case a.ProjectionYears < 1:
		return Breakdown{}, &UndefinedValuationError{Reason: "projection horizon must be at least one year", GrowthRate: g}
	}

	// ratio^t equals (1+g)^t / (1+wacc)^t, so each discounted cash flow is
	// FreeCashFlow*ratio^t without ever forming the two large powers.
	ratio := (1 + g) / (1 + a.WACC)
	n := a.ProjectionYears

	var sum, weighted float64
	term := 1.0
	for t := 1; t <= n; t++ {
		term *= ratio
		sum += term
		weighted += float64(t) * term
	}

	tvMultiple := (1 + a.TerminalGrowthRate) / spread
	pvCashFlows := a.FreeCashFlow * sum
	pvTerminal := a.FreeCashFlow * term * tvMultiple
	equity := pvCashFlows + pvTerminal

	// d(ratio^t)/dg = t*ratio^t/(1+g)
	slope := a.FreeCashFlow * (weighted + float64(n)*term*tvMultiple) / (1 + g)

	b := Breakdown{
		GrowthRate:              g,
		PresentValueOfCashFlows: pvCashFlows,
		PresentValueOfTerminal:  pvTerminal,
		EquityValue:             equity,
		PerShare:                equity / a.SharesOutstanding,
		Slope:                   slope / a.SharesOutstanding,
	}
	if math.IsNaN(b.PerShare) || math.IsInf(b.PerShare, 0) {
		return Breakdown{}, &UndefinedValuationError{Reason: "value overflows float64", GrowthRate: g}
	}
	return b, nil
}
