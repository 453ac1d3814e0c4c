package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Baseline selects the growth rate used for the reference intrinsic value.
type Baseline string

const (
	// BaselineZero values the company with flat free cash flow.
	BaselineZero Baseline = "zero"
	// BaselineTerminal grows free cash flow at the terminal growth rate.
	BaselineTerminal Baseline = "terminal"
)

// Method names reported in Result.
const (
	MethodEndpoint = "endpoint"
	MethodNewton   = "newton"
	MethodBisect   = "bisection"
)

// SolverConfig tunes the growth-rate root finder.
type SolverConfig struct {
	InitialLow           float64
	InitialHigh          float64
	PriceTolerance       float64
	MaxIterations        int
	MaxBracketExpansions int
	Baseline             Baseline
}

// DefaultSolverConfig returns the standard solver settings.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		InitialLow:           -0.5,
		InitialHigh:          2.0,
		PriceTolerance:       0.0001,
		MaxIterations:        200,
		MaxBracketExpansions: 32,
		Baseline:             BaselineZero,
	}
}

// Validate checks the solver settings.
func (c SolverConfig) Validate() error {
	switch {
	case !(c.InitialLow > -1):
		return fmt.Errorf("initial low growth rate must be greater than -1, got %g", c.InitialLow)
	case !(c.InitialHigh > 0) || !(c.InitialHigh > c.InitialLow):
		return fmt.Errorf("initial high growth rate must be positive and above the low bound, got %g", c.InitialHigh)
	case !(c.PriceTolerance > 0) || c.PriceTolerance > 0.01:
		return fmt.Errorf("price tolerance must be in (0, 0.01], got %g", c.PriceTolerance)
	case c.MaxIterations < 1:
		return errors.New("max iterations must be at least 1")
	case c.MaxBracketExpansions < 0:
		return errors.New("max bracket expansions cannot be negative")
	case c.Baseline != BaselineZero && c.Baseline != BaselineTerminal:
		return fmt.Errorf("unknown baseline %q", c.Baseline)
	}
	return nil
}

// Root is a converged growth rate for a per-share price target.
type Root struct {
	GrowthRate        float64
	Price             float64
	Residual          float64
	Iterations        int
	BracketExpansions int
	Method            string
}

// Result is the output of the primary reverse DCF calculation.
type Result struct {
	ImpliedGrowthRate float64
	// ImpliedStockPrice is Value(a, ImpliedGrowthRate), exactly.
	ImpliedStockPrice float64
	// IntrinsicValue is the per-share value at BaselineGrowthRate.
	IntrinsicValue       float64
	IntrinsicEquityValue float64
	BaselineGrowthRate   float64
	Iterations           int
	BracketExpansions    int
	Residual             float64
	Method               string
}

// Solver finds the growth rate at which the DCF value matches a price.
type Solver struct {
	cfg SolverConfig
}

// NewSolver creates a solver with the given configuration.
func NewSolver(cfg SolverConfig) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{cfg: cfg}, nil
}

// Config returns the solver configuration.
func (s *Solver) Config() SolverConfig {
	return s.cfg
}

// Solve validates a and returns the growth rate implied by its
// CurrentStockPrice together with the baseline intrinsic value.
func (s *Solver) Solve(ctx context.Context, a Assumptions) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, err
	}

	root, err := s.SolveFor(ctx, a, a.CurrentStockPrice)
	if err != nil {
		return Result{}, err
	}

	baseline := 0.0
	if s.cfg.Baseline == BaselineTerminal {
		baseline = a.TerminalGrowthRate
	}
	ref, err := Evaluate(a, baseline)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ImpliedGrowthRate:    root.GrowthRate,
		ImpliedStockPrice:    root.Price,
		IntrinsicValue:       ref.PerShare,
		IntrinsicEquityValue: ref.EquityValue,
		BaselineGrowthRate:   baseline,
		Iterations:           root.Iterations,
		BracketExpansions:    root.BracketExpansions,
		Residual:             root.Residual,
		Method:               root.Method,
	}, nil
}

// SolveFor finds g with |Value(a, g) - target| < PriceTolerance.
// a must already be valid; target must be positive.
//
// The bracket starts at [InitialLow, InitialHigh]. While both ends sit on the
// same side of the target it is widened: upward by doubling the high end,
// downward by halving the distance of the low end to -1. Inside the bracket a
// Newton step is taken whenever it stays strictly inside, otherwise the
// bracket is bisected.
func (s *Solver) SolveFor(ctx context.Context, a Assumptions, target float64) (Root, error) {
	if !(target > 0) || math.IsInf(target, 0) {
		return Root{}, fmt.Errorf("%w: target price must be positive and finite, got %g", ErrInvalidAssumption, target)
	}

	tol := s.cfg.PriceTolerance
	residual := func(g float64) (float64, float64, error) {
		b, err := Evaluate(a, g)
		if err != nil {
			return 0, 0, err
		}
		return b.PerShare - target, b.Slope, nil
	}

	low, high := s.cfg.InitialLow, s.cfg.InitialHigh
	fLow, _, err := residual(low)
	if err != nil {
		return Root{}, &ConvergenceError{Reason: "cannot evaluate lower bracket", Low: low, High: high, Err: err}
	}
	fHigh, _, err := residual(high)
	if err != nil {
		return Root{}, &ConvergenceError{Reason: "cannot evaluate upper bracket", Low: low, High: high, Err: err}
	}

	expansions := 0
	for fLow > 0 && fHigh > 0 {
		if expansions >= s.cfg.MaxBracketExpansions {
			return Root{}, &ConvergenceError{
				Reason:            "market price is below the value at every bracketed growth rate",
				BracketExpansions: expansions, Low: low, High: high, Estimate: low, Residual: fLow,
			}
		}
		high, fHigh = low, fLow
		low = -1 + (1+low)/2
		expansions++
		if fLow, _, err = residual(low); err != nil {
			return Root{}, &ConvergenceError{Reason: "cannot evaluate lower bracket", BracketExpansions: expansions, Low: low, High: high, Err: err}
		}
	}
	for fLow < 0 && fHigh < 0 {
		if expansions >= s.cfg.MaxBracketExpansions {
			return Root{}, &ConvergenceError{
				Reason:            "market price is above the value at every bracketed growth rate",
				BracketExpansions: expansions, Low: low, High: high, Estimate: high, Residual: fHigh,
			}
		}
		low, fLow = high, fHigh
		high *= 2
		expansions++
		if fHigh, _, err = residual(high); err != nil {
			return Root{}, &ConvergenceError{Reason: "cannot evaluate upper bracket", BracketExpansions: expansions, Low: low, High: high, Err: err}
		}
	}

	if math.Abs(fLow) < tol {
		return s.finish(a, low, expansions, 0, MethodEndpoint, target)
	}
	if math.Abs(fHigh) < tol {
		return s.finish(a, high, expansions, 0, MethodEndpoint, target)
	}

	g := low + (high-low)/2
	method := MethodBisect
	for i := 1; i <= s.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return Root{}, err
		}

		fg, slope, err := residual(g)
		if err != nil {
			return Root{}, &ConvergenceError{
				Reason: "evaluation failed inside bracket", Iterations: i, BracketExpansions: expansions,
				Low: low, High: high, Estimate: g, Err: err,
			}
		}
		if math.Abs(fg) < tol {
			return s.finish(a, g, expansions, i, method, target)
		}

		if fg < 0 {
			low = g
		} else {
			high = g
		}
		if high-low <= 1e-15*(1+math.Abs(g)) {
			return Root{}, &ConvergenceError{
				Reason: "bracket collapsed before reaching price tolerance", Iterations: i, BracketExpansions: expansions,
				Low: low, High: high, Estimate: g, Residual: fg,
			}
		}

		next := g - fg/slope
		if slope > 0 && next > low && next < high {
			method = MethodNewton
		} else {
			next = low + (high-low)/2
			method = MethodBisect
		}
		g = next
	}

	return Root{}, &ConvergenceError{
		Reason:            "iteration limit reached",
		Iterations:        s.cfg.MaxIterations,
		BracketExpansions: expansions,
		Low:               low,
		High:              high,
		Estimate:          g,
	}
}

func (s *Solver) finish(a Assumptions, g float64, expansions, iterations int, method string, target float64) (Root, error) {
	price, err := Value(a, g)
	if err != nil {
		return Root{}, err
	}
	return Root{
		GrowthRate:        g,
		Price:             price,
		Residual:          price - target,
		Iterations:        iterations,
		BracketExpansions: expansions,
		Method:            method,
	}, nil
}
