package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a    Assumptions
		g    float64
		want float64
	}{
		{
			name: "single year, flat cash flow",
			a:    Assumptions{FreeCashFlow: 1, SharesOutstanding: 1, WACC: 0.10, TerminalGrowthRate: 0.05, ProjectionYears: 1},
			g:    0,
			want: 20,
		},
		{
			name: "single year, growth equal to wacc",
			a:    Assumptions{FreeCashFlow: 1, SharesOutstanding: 1, WACC: 0.10, TerminalGrowthRate: 0.05, ProjectionYears: 1},
			g:    0.10,
			want: 22,
		},
		{
			name: "reference scenario at zero growth",
			a:    exampleAssumptions(),
			g:    0,
			want: 1.5562624386651882,
		},
		{
			name: "reference scenario at five percent",
			a:    exampleAssumptions(),
			g:    0.05,
			want: 1.936491584981329,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.a, tt.g)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestValue_GrowthAtTerminalRateIsGordonValue(t *testing.T) {
	// With g equal to the terminal rate the explicit years and the terminal
	// value collapse into FCF*(1+tg)/(wacc-tg).
	a := exampleAssumptions()
	for _, years := range []int{1, 5, 15, 50} {
		a.ProjectionYears = years
		got, err := Value(a, a.TerminalGrowthRate)
		require.NoError(t, err)
		assert.InDelta(t, 100*1.02/0.06/1000, got, 1e-9, "years=%d", years)
	}
}

func TestValue_StrictlyIncreasingInGrowth(t *testing.T) {
	a := exampleAssumptions()

	prev, err := Value(a, -0.99)
	require.NoError(t, err)
	for g := -0.95; g <= 5.0; g += 0.05 {
		v, err := Value(a, g)
		require.NoError(t, err)
		assert.Greater(t, v, prev, "value must increase at g=%v", g)
		prev = v
	}
}

func TestValue_StableAcrossRange(t *testing.T) {
	a := exampleAssumptions()
	a.ProjectionYears = MaxProjectionYears

	for _, g := range []float64{-0.99, -0.5, 0, 1, 5, 10} {
		v, err := Value(a, g)
		require.NoError(t, err, "g=%v", g)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "g=%v", g)
		assert.Greater(t, v, 0.0)
	}
}

func TestValue_Undefined(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Assumptions)
		g      float64
	}{
		{"terminal growth equals wacc", func(a *Assumptions) { a.TerminalGrowthRate = a.WACC }, 0.05},
		{"terminal growth above wacc", func(a *Assumptions) { a.TerminalGrowthRate = 0.2 }, 0.05},
		{"growth at minus one hundred percent", func(a *Assumptions) {}, -1},
		{"growth below minus one hundred percent", func(a *Assumptions) {}, -1.5},
		{"NaN growth", func(a *Assumptions) {}, math.NaN()},
		{"zero shares", func(a *Assumptions) { a.SharesOutstanding = 0 }, 0.05},
		{"zero years", func(a *Assumptions) { a.ProjectionYears = 0 }, 0.05},
		{"overflow", func(a *Assumptions) { a.ProjectionYears = MaxProjectionYears }, 1e7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := exampleAssumptions()
			tt.mutate(&a)

			v, err := Value(a, tt.g)
			assert.ErrorIs(t, err, ErrUndefinedValuation)
			assert.Zero(t, v)

			var undefined *UndefinedValuationError
			assert.ErrorAs(t, err, &undefined)
		})
	}
}

func TestEvaluate_Breakdown(t *testing.T) {
	a := exampleAssumptions()

	b, err := Evaluate(a, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 0.05, b.GrowthRate)
	assert.InDelta(t, b.EquityValue, b.PresentValueOfCashFlows+b.PresentValueOfTerminal, 1e-9)
	assert.InDelta(t, b.EquityValue/a.SharesOutstanding, b.PerShare, 1e-12)
	assert.Greater(t, b.PresentValueOfTerminal, b.PresentValueOfCashFlows)
}

func TestEvaluate_SlopeMatchesFiniteDifference(t *testing.T) {
	a := exampleAssumptions()
	const h = 1e-6

	for _, g := range []float64{-0.4, 0, 0.3, 1.5} {
		b, err := Evaluate(a, g)
		require.NoError(t, err)

		up, err := Value(a, g+h)
		require.NoError(t, err)
		down, err := Value(a, g-h)
		require.NoError(t, err)

		assert.InEpsilon(t, (up-down)/(2*h), b.Slope, 1e-5, "g=%v", g)
	}
}
