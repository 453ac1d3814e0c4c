package valuation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arvinbobis/reverse-dcf/internal/domain/shared"
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
)

// ErrBatchTooLarge is returned when a batch exceeds Config.MaxBatchItems.
var ErrBatchTooLarge = shared.NewDomainError("BATCH_TOO_LARGE", "Batch has too many items")

// ErrEmptyBatch is returned for a batch without items.
var ErrEmptyBatch = shared.NewDomainError("INVALID_INPUT", "Batch must contain at least one item")

// Config holds the service limits.
type Config struct {
	Sensitivity valuation.SensitivityConfig
	// Timeout bounds a single calculation. Zero disables it.
	Timeout          time.Duration
	MaxBatchItems    int
	BatchConcurrency int
}

// Service runs valuations on behalf of the transport layers.
type Service struct {
	solver  *valuation.Solver
	cfg     Config
	metrics *telemetry.ValuationMetrics
}

// NewService creates a Service. metrics may be nil.
func NewService(solver *valuation.Solver, cfg Config, metrics *telemetry.ValuationMetrics) (*Service, error) {
	if solver == nil {
		return nil, errors.New("valuation service: solver is required")
	}
	if err := cfg.Sensitivity.Validate(); err != nil {
		return nil, fmt.Errorf("valuation service: %w", err)
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("valuation service: timeout cannot be negative")
	}
	if cfg.MaxBatchItems < 1 || cfg.BatchConcurrency < 1 {
		return nil, errors.New("valuation service: batch limits must be positive")
	}
	return &Service{solver: solver, cfg: cfg, metrics: metrics}, nil
}

// Config returns the service limits.
func (s *Service) Config() Config {
	return s.cfg
}

// SolverConfig returns the configuration of the underlying solver.
func (s *Service) SolverConfig() valuation.SolverConfig {
	return s.solver.Config()
}

// Calculate solves for the implied growth rate and builds the sensitivity
// table and enterprise value cross-check around it.
func (s *Service) Calculate(ctx context.Context, cmd CalculateCommand) (*CalculationResult, error) {
	const op = telemetry.OperationCalculate
	ctx, span := telemetry.StartSpan(ctx, "valuation", op,
		telemetry.AttrProjectionYears.Int(cmd.Assumptions.ProjectionYears))
	defer span.End()

	start := time.Now()
	defer s.metrics.TrackInFlight(ctx, op)()

	result, err := bounded(ctx, s.cfg.Timeout, op, func(ctx context.Context) (*CalculationResult, error) {
		return s.calculate(ctx, cmd.Assumptions)
	})
	s.observe(ctx, span, op, start, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		telemetry.AttrImpliedGrowthRate.Float64(result.ImpliedGrowthRate),
		telemetry.AttrSolverMethod.String(result.Solver.Method),
		telemetry.AttrSolverIterations.Int(result.Solver.Iterations),
		telemetry.AttrSolverExpansions.Int(result.Solver.BracketExpansions),
	)
	logger.L(ctx).Debug("Reverse DCF solved",
		zap.Float64("implied_growth_rate", result.ImpliedGrowthRate),
		zap.Float64("implied_stock_price", result.ImpliedStockPrice),
		zap.String("method", result.Solver.Method),
		zap.Int("iterations", result.Solver.Iterations),
		zap.Int("bracket_expansions", result.Solver.BracketExpansions),
	)
	return result, nil
}

func (s *Service) calculate(ctx context.Context, a valuation.Assumptions) (*CalculationResult, error) {
	res, err := s.solver.Solve(ctx, a)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSolve(ctx, res.Method, res.Iterations, res.BracketExpansions)

	table, err := valuation.Sensitivity(a, res.ImpliedGrowthRate, s.cfg.Sensitivity)
	if err != nil {
		return nil, err
	}

	ev := s.solver.CheckEnterpriseValue(ctx, a, res.ImpliedGrowthRate)
	if !ev.Converged {
		logger.L(ctx).Info("Enterprise value cross-check did not converge", zap.String("reason", ev.Reason))
	}

	return &CalculationResult{
		CurrentStockPrice:    a.CurrentStockPrice,
		ImpliedGrowthRate:    res.ImpliedGrowthRate,
		ImpliedStockPrice:    res.ImpliedStockPrice,
		IntrinsicValue:       res.IntrinsicValue,
		IntrinsicEquityValue: res.IntrinsicEquityValue,
		BaselineGrowthRate:   res.BaselineGrowthRate,
		Sensitivity:          table,
		EnterpriseValue:      ev,
		Solver: SolverStats{
			Method:            res.Method,
			Iterations:        res.Iterations,
			BracketExpansions: res.BracketExpansions,
			Residual:          res.Residual,
		},
	}, nil
}

// CustomGrowth values the company at cmd.CustomGrowthRate and projects the
// price path forward.
func (s *Service) CustomGrowth(ctx context.Context, cmd CustomGrowthCommand) (*CustomGrowthResult, error) {
	const op = telemetry.OperationCustomGrowth
	ctx, span := telemetry.StartSpan(ctx, "valuation", op,
		telemetry.AttrProjectionYears.Int(cmd.Assumptions.ProjectionYears))
	defer span.End()

	start := time.Now()
	defer s.metrics.TrackInFlight(ctx, op)()

	result, err := bounded(ctx, s.cfg.Timeout, op, func(context.Context) (*CustomGrowthResult, error) {
		p, err := valuation.Project(cmd.Assumptions, cmd.CustomGrowthRate)
		if err != nil {
			return nil, err
		}
		return &CustomGrowthResult{CurrentStockPrice: cmd.Assumptions.CurrentStockPrice, Projection: p}, nil
	})
	s.observe(ctx, span, op, start, err)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Debug("Custom growth valuation computed",
		zap.Float64("custom_growth_rate", result.GrowthRate),
		zap.Float64("implied_stock_price", result.ImpliedStockPrice),
	)
	return result, nil
}

// Batch runs Calculate for every item with bounded concurrency. A failing
// item is reported in its own result and never fails the batch.
func (s *Service) Batch(ctx context.Context, cmd BatchCommand) (*BatchResult, error) {
	n := len(cmd.Items)
	if n == 0 {
		return nil, ErrEmptyBatch
	}
	if n > s.cfg.MaxBatchItems {
		return nil, shared.NewDomainError(ErrBatchTooLarge.Code,
			fmt.Sprintf("Batch has %d items, the limit is %d", n, s.cfg.MaxBatchItems))
	}

	const op = telemetry.OperationBatch
	ctx, span := telemetry.StartSpan(ctx, "valuation", op, telemetry.AttrBatchSize.Int(n))
	defer span.End()
	start := time.Now()
	s.metrics.RecordBatch(ctx, n)

	out := &BatchResult{Items: make([]BatchItemResult, n)}

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, item := range cmd.Items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		g.Go(func() error {
			itemCtx := logger.WithItemID(ctx, id)
			res, err := s.Calculate(itemCtx, CalculateCommand{Assumptions: item.Assumptions})
			out.Items[i] = BatchItemResult{Index: i, ID: id, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range out.Items {
		if item.Err != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	s.observe(ctx, span, op, start, nil)
	logger.L(ctx).Info("Batch valuation finished",
		zap.Int("items", n),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// referenceAssumptions is a scenario with a known finite solution.
var referenceAssumptions = valuation.Assumptions{
	CurrentStockPrice:  12.50,
	FreeCashFlow:       100,
	SharesOutstanding:  1000,
	WACC:               0.08,
	TerminalGrowthRate: 0.02,
	ProjectionYears:    5,
	EnterpriseValue:    12500,
}

// SelfCheck solves a reference scenario within the calculation timeout.
// Health probes call it; it records no metrics.
func (s *Service) SelfCheck(ctx context.Context) error {
	_, err := bounded(ctx, s.cfg.Timeout, telemetry.OperationSelfCheck, func(ctx context.Context) (valuation.Result, error) {
		return s.solver.Solve(ctx, referenceAssumptions)
	})
	return err
}

// observe records metrics, span status and a log line for a finished call.
func (s *Service) observe(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	outcome := OutcomeOf(err)
	s.metrics.RecordCalculation(ctx, op, outcome, time.Since(start))
	span.SetAttributes(telemetry.AttrOutcome.String(string(outcome)))

	switch outcome {
	case telemetry.OutcomeSuccess:
		telemetry.SetOK(span)
		return
	case telemetry.OutcomeInvalid:
		// Client errors leave the span status unset.
		logger.L(ctx).Debug("Valuation rejected", zap.String("operation", op), zap.Error(err))
		return
	case telemetry.OutcomeNotConverged, telemetry.OutcomeTimeout, telemetry.OutcomeCanceled:
		logger.L(ctx).Warn("Valuation failed", zap.String("operation", op), zap.String("outcome", string(outcome)), zap.Error(err))
	default:
		logger.L(ctx).Error("Valuation failed", zap.String("operation", op), zap.String("outcome", string(outcome)), zap.Error(err))
	}
	telemetry.RecordError(span, err)
}

// OutcomeOf classifies an error returned by the service.
func OutcomeOf(err error) telemetry.Outcome {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, valuation.ErrInvalidAssumption), errors.Is(err, shared.ErrInvalidInput):
		return telemetry.OutcomeInvalid
	case errors.Is(err, valuation.ErrNotConverged):
		return telemetry.OutcomeNotConverged
	case errors.Is(err, valuation.ErrUndefinedValuation):
		return telemetry.OutcomeUndefined
	case errors.Is(err, shared.ErrTimeout):
		return telemetry.OutcomeTimeout
	case errors.Is(err, shared.ErrCanceled):
		return telemetry.OutcomeCanceled
	default:
		return telemetry.OutcomeError
	}
}

type outcome[T any] struct {
	value T
	err   error
}

// bounded runs fn on its own goroutine under profiling labels and returns
// when fn finishes or ctx ends, whichever comes first. A result that arrives
// after the deadline is discarded.
func bounded[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var zero T
	if err := ctx.Err(); err != nil {
		return zero, contextError(err, timeout)
	}

	done := make(chan outcome[T], 1)
	go func() {
		var o outcome[T]
		labels := map[string]string{telemetry.ProfilingLabelOperation: op}
		telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
			o.value, o.err = fn(ctx)
		})
		done <- o
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return zero, contextError(o.err, timeout)
		}
		return o.value, nil
	case <-ctx.Done():
		return zero, contextError(ctx.Err(), timeout)
	}
}

// contextError turns context errors into domain errors and passes anything
// else through.
func contextError(err error, timeout time.Duration) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg := shared.ErrTimeout.Message
		if timeout > 0 {
			msg = "Calculation did not finish within " + strconv.FormatInt(timeout.Milliseconds(), 10) + "ms"
		}
		return &contextDomainError{DomainError: shared.NewDomainError(shared.ErrTimeout.Code, msg), cause: err}
	case errors.Is(err, context.Canceled):
		return &contextDomainError{DomainError: shared.ErrCanceled, cause: err}
	default:
		return err
	}
}

// contextDomainError keeps the original context error reachable through
// errors.Is while presenting a DomainError.
type contextDomainError struct {
	*shared.DomainError
	cause error
}

func (e *contextDomainError) Unwrap() []error {
	return []error{e.DomainError, e.cause}
}
