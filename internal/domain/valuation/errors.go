package valuation

import (
	"fmt"
	"strings"

	"github.com/arvinbobis/reverse-dcf/internal/domain/shared"
)

// Sentinel errors. Detailed errors below unwrap to one of these, so callers
// can branch with errors.Is and still read the specific cause.
var (
	ErrInvalidAssumption  = shared.NewDomainError("INVALID_ASSUMPTION", "Invalid valuation assumption")
	ErrUndefinedValuation = shared.NewDomainError("UNDEFINED_VALUATION", "Valuation is mathematically undefined")
	ErrNotConverged       = shared.NewDomainError("NOT_CONVERGED", "Growth rate solver did not converge")
)

// ValidationError reports a single assumption that failed its constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAssumption
}

// ValidationErrors collects every failed constraint of one request.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid assumptions: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// UndefinedValuationError is returned by the valuation function when the
// model has no finite value for the given inputs. Validated assumptions
// should never produce it for growth rates inside the solver bracket.
type UndefinedValuationError struct {
	Reason     string
	GrowthRate float64
}

func (e *UndefinedValuationError) Error() string {
	return fmt.Sprintf("valuation undefined at growth rate %g: %s", e.GrowthRate, e.Reason)
}

func (e *UndefinedValuationError) Unwrap() error {
	return ErrUndefinedValuation
}

// ConvergenceError is returned when the solver cannot bracket the market
// price or exhausts its iteration budget.
type ConvergenceError struct {
	Reason            string
	Iterations        int
	BracketExpansions int
	Low               float64
	High              float64
	Estimate          float64
	Residual          float64
	Err               error
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("growth rate solver did not converge: %s (iterations=%d, expansions=%d, bracket=[%g, %g])",
		e.Reason, e.Iterations, e.BracketExpansions, e.Low, e.High)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConvergenceError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotConverged, e.Err}
	}
	return []error{ErrNotConverged}
}
