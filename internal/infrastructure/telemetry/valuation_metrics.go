package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("NewValuationMetrics: meter cannot be nil")

// Outcome labels a finished calculation.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeNotConverged Outcome = "not_converged"
	OutcomeUndefined    Outcome = "undefined"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeCanceled     Outcome = "canceled"
	OutcomeError        Outcome = "error"
)

// Operation names used as metric and span labels.
const (
	OperationCalculate    = "calculate"
	OperationCustomGrowth = "custom_growth"
	OperationBatch        = "batch"
	OperationSelfCheck    = "self_check"
)

// ValuationMetrics records how the valuation engine behaves in production.
// All methods are safe to call on a nil receiver, which records nothing.
type ValuationMetrics struct {
	calculations *Counter
	duration     *Histogram
	iterations   *Histogram
	expansions   *Histogram
	inFlight     *UpDownCounter
	batchSize    *Histogram
}

// NewValuationMetrics registers the valuation instruments on meter.
func NewValuationMetrics(meter metric.Meter) (*ValuationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ValuationMetrics{}
	var err error

	if m.calculations, err = NewCounter(meter,
		"rdcf_valuation_calculations_total",
		"Total number of valuation calculations by operation and outcome",
		"{calculations}",
	); err != nil {
		return nil, err
	}

	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "rdcf_valuation_duration_seconds",
		Description: "Wall time of a single valuation calculation",
		Unit:        "s",
		Boundaries:  SolveDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if m.iterations, err = NewHistogram(meter, HistogramOpts{
		Name:        "rdcf_solver_iterations",
		Description: "Iterations used by the growth-rate solver",
		Unit:        "{iterations}",
		Boundaries:  IterationBuckets,
	}); err != nil {
		return nil, err
	}

	if m.expansions, err = NewHistogram(meter, HistogramOpts{
		Name:        "rdcf_solver_bracket_expansions",
		Description: "Bracket expansions needed before the solver found a sign change",
		Unit:        "{expansions}",
		Boundaries:  IterationBuckets,
	}); err != nil {
		return nil, err
	}

	if m.inFlight, err = NewUpDownCounter(meter,
		"rdcf_valuation_in_flight",
		"Valuation calculations currently running",
		"{calculations}",
	); err != nil {
		return nil, err
	}

	if m.batchSize, err = NewHistogram(meter, HistogramOpts{
		Name:        "rdcf_batch_size",
		Description: "Number of items per batch valuation request",
		Unit:        "{items}",
		Boundaries:  BatchSizeBuckets,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCalculation counts a finished calculation and its duration.
func (m *ValuationMetrics) RecordCalculation(ctx context.Context, operation string, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.calculations.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(string(outcome)))
	m.duration.RecordDuration(ctx, d, AttrOperation.String(operation))
}

// RecordSolve records the work the root finder needed for one solve.
func (m *ValuationMetrics) RecordSolve(ctx context.Context, method string, iterations, expansions int) {
	if m == nil {
		return
	}
	m.iterations.Record(ctx, float64(iterations), AttrSolverMethod.String(method))
	m.expansions.Record(ctx, float64(expansions))
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func (m *ValuationMetrics) TrackInFlight(ctx context.Context, operation string) func() {
	if m == nil {
		return func() {}
	}
	attr := AttrOperation.String(operation)
	m.inFlight.Add(ctx, 1, attr)
	return func() { m.inFlight.Add(ctx, -1, attr) }
}

// RecordBatch records the size of a batch request.
func (m *ValuationMetrics) RecordBatch(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.batchSize.Record(ctx, float64(size))
}
