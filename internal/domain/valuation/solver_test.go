package valuation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSolver(t *testing.T, mutate func(c *SolverConfig)) *Solver {
	t.Helper()
	cfg := DefaultSolverConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSolver(cfg)
	require.NoError(t, err)
	return s
}

func TestSolverConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSolverConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *SolverConfig)
	}{
		{"low at minus one", func(c *SolverConfig) { c.InitialLow = -1 }},
		{"high not positive", func(c *SolverConfig) { c.InitialHigh = 0 }},
		{"high below low", func(c *SolverConfig) { c.InitialLow = 0.5; c.InitialHigh = 0.4 }},
		{"zero tolerance", func(c *SolverConfig) { c.PriceTolerance = 0 }},
		{"tolerance above one cent", func(c *SolverConfig) { c.PriceTolerance = 0.05 }},
		{"no iterations", func(c *SolverConfig) { c.MaxIterations = 0 }},
		{"negative expansions", func(c *SolverConfig) { c.MaxBracketExpansions = -1 }},
		{"unknown baseline", func(c *SolverConfig) { c.Baseline = "median" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSolverConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := NewSolver(cfg)
			assert.Error(t, err)
		})
	}
}

func TestSolver_Solve_ReferenceScenario(t *testing.T) {
	s := newTestSolver(t, nil)
	a := exampleAssumptions()

	res, err := s.Solve(context.Background(), a)
	require.NoError(t, err)

	assert.InDelta(t, 0.5624, res.ImpliedGrowthRate, 1e-3)
	assert.InDelta(t, 12.50, res.ImpliedStockPrice, 0.01)
	assert.Less(t, math.Abs(res.Residual), s.Config().PriceTolerance)
	assert.LessOrEqual(t, res.Iterations, s.Config().MaxIterations)
	assert.Zero(t, res.BracketExpansions)

	// Round trip: the reported price is the valuation at the reported rate.
	again, err := Value(a, res.ImpliedGrowthRate)
	require.NoError(t, err)
	assert.Equal(t, again, res.ImpliedStockPrice)

	// Intrinsic value uses the zero-growth baseline.
	assert.Zero(t, res.BaselineGrowthRate)
	assert.InDelta(t, 1.5562624386651882, res.IntrinsicValue, 1e-9)
	assert.InDelta(t, 1556.2624386651883, res.IntrinsicEquityValue, 1e-6)

	// One more point of growth is worth strictly more.
	higher, err := Value(a, res.ImpliedGrowthRate+0.01)
	require.NoError(t, err)
	assert.Greater(t, higher, res.ImpliedStockPrice)
}

func TestSolver_Solve_TerminalBaseline(t *testing.T) {
	s := newTestSolver(t, func(c *SolverConfig) { c.Baseline = BaselineTerminal })

	res, err := s.Solve(context.Background(), exampleAssumptions())
	require.NoError(t, err)
	assert.Equal(t, 0.02, res.BaselineGrowthRate)
	assert.InDelta(t, 1.7, res.IntrinsicValue, 1e-9)
}

func TestSolver_Solve_MatchesPriceAcrossScenarios(t *testing.T) {
	s := newTestSolver(t, nil)

	tests := []struct {
		name  string
		price float64
		years int
		fcf   float64
	}{
		{"cheap stock needs negative growth", 0.5, 5, 100},
		{"price at zero growth", 1.5562624386651882, 5, 100},
		{"long horizon", 30, 15, 100},
		{"large company", 180, 10, 9_000_000},
		{"fifty year horizon", 3, 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := exampleAssumptions()
			a.CurrentStockPrice = tt.price
			a.ProjectionYears = tt.years
			a.FreeCashFlow = tt.fcf
			if tt.fcf > 1000 {
				a.SharesOutstanding = 1_000_000
			}

			res, err := s.Solve(context.Background(), a)
			require.NoError(t, err)

			v, err := Value(a, res.ImpliedGrowthRate)
			require.NoError(t, err)
			assert.InDelta(t, tt.price, v, 0.01)
			assert.Equal(t, v, res.ImpliedStockPrice)
		})
	}
}

func TestSolver_Solve_ExpandsBracket(t *testing.T) {
	s := newTestSolver(t, nil)

	t.Run("downward", func(t *testing.T) {
		a := exampleAssumptions()
		a.CurrentStockPrice = 0.001

		res, err := s.Solve(context.Background(), a)
		require.NoError(t, err)
		assert.Greater(t, res.BracketExpansions, 0)
		assert.Less(t, res.ImpliedGrowthRate, -0.5)
		assert.Greater(t, res.ImpliedGrowthRate, -1.0)
		assert.InDelta(t, 0.001, res.ImpliedStockPrice, s.Config().PriceTolerance)
	})

	t.Run("upward", func(t *testing.T) {
		a := exampleAssumptions()
		a.CurrentStockPrice = 1000

		res, err := s.Solve(context.Background(), a)
		require.NoError(t, err)
		assert.Greater(t, res.BracketExpansions, 0)
		assert.Greater(t, res.ImpliedGrowthRate, 2.0)
		assert.InDelta(t, 1000, res.ImpliedStockPrice, s.Config().PriceTolerance)
	})
}

func TestSolver_Solve_ConvergenceFailures(t *testing.T) {
	t.Run("no bracket without expansions", func(t *testing.T) {
		s := newTestSolver(t, func(c *SolverConfig) { c.MaxBracketExpansions = 0 })
		a := exampleAssumptions()
		a.CurrentStockPrice = 1000

		_, err := s.Solve(context.Background(), a)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotConverged)

		var ce *ConvergenceError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, 2.0, ce.High)
		assert.Contains(t, ce.Error(), "above the value")
	})

	t.Run("value overflows before bracketing", func(t *testing.T) {
		s := newTestSolver(t, nil)
		a := exampleAssumptions()
		a.ProjectionYears = MaxProjectionYears
		a.CurrentStockPrice = 1e305

		_, err := s.Solve(context.Background(), a)
		assert.ErrorIs(t, err, ErrNotConverged)
	})

	t.Run("iteration limit", func(t *testing.T) {
		s := newTestSolver(t, func(c *SolverConfig) {
			c.MaxIterations = 1
			c.PriceTolerance = 1e-12
		})

		_, err := s.Solve(context.Background(), exampleAssumptions())
		require.Error(t, err)

		var ce *ConvergenceError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "iteration limit reached", ce.Reason)
		assert.Equal(t, 1, ce.Iterations)
	})
}

func TestSolver_Solve_RejectsInvalidAssumptions(t *testing.T) {
	s := newTestSolver(t, nil)
	a := exampleAssumptions()
	a.TerminalGrowthRate = a.WACC

	res, err := s.Solve(context.Background(), a)
	assert.ErrorIs(t, err, ErrInvalidAssumption)
	assert.NotErrorIs(t, err, ErrUndefinedValuation)
	assert.Equal(t, Result{}, res)
}

func TestSolver_Solve_Canceled(t *testing.T) {
	s := newTestSolver(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Solve(ctx, exampleAssumptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolver_SolveFor_RejectsNonPositiveTarget(t *testing.T) {
	s := newTestSolver(t, nil)
	_, err := s.SolveFor(context.Background(), exampleAssumptions(), 0)
	assert.ErrorIs(t, err, ErrInvalidAssumption)
}

func TestSolver_CheckEnterpriseValue(t *testing.T) {
	s := newTestSolver(t, nil)
	a := exampleAssumptions()
	a.EnterpriseValue = 1556.2624386651883

	res, err := s.Solve(context.Background(), a)
	require.NoError(t, err)

	check := s.CheckEnterpriseValue(context.Background(), a, res.ImpliedGrowthRate)
	require.True(t, check.Converged, check.Reason)
	assert.InDelta(t, 0, check.ImpliedGrowthRate, 1e-3)
	assert.InDelta(t, 12500, check.ModelValue, 10)
	assert.InDelta(t, (check.ModelValue-a.EnterpriseValue)/a.EnterpriseValue*100, check.DifferencePercent, 1e-9)
	assert.Empty(t, check.Reason)
}

func TestSolver_CheckEnterpriseValue_ReportsFailure(t *testing.T) {
	s := newTestSolver(t, func(c *SolverConfig) { c.MaxBracketExpansions = 0 })
	a := exampleAssumptions()
	a.EnterpriseValue = 5_000_000

	check := s.CheckEnterpriseValue(context.Background(), a, 0.5)
	assert.False(t, check.Converged)
	assert.NotEmpty(t, check.Reason)
	assert.Greater(t, check.ModelValue, 0.0)
}
