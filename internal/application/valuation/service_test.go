package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arvinbobis/reverse-dcf/internal/domain/shared"
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
)

func exampleAssumptions() valuation.Assumptions {
	return valuation.Assumptions{
		CurrentStockPrice:  12.50,
		FreeCashFlow:       100,
		SharesOutstanding:  1000,
		WACC:               0.08,
		TerminalGrowthRate: 0.02,
		ProjectionYears:    5,
		EnterpriseValue:    15000,
	}
}

func testConfig() Config {
	return Config{
		Sensitivity:      valuation.DefaultSensitivityConfig(),
		Timeout:          time.Second,
		MaxBatchItems:    10,
		BatchConcurrency: 3,
	}
}

type harness struct {
	svc    *Service
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newHarness(t *testing.T, mutateSolver func(*valuation.SolverConfig), mutate func(*Config)) *harness {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	metrics, err := telemetry.NewValuationMetrics(mp.Meter("test"))
	require.NoError(t, err)

	solverCfg := valuation.DefaultSolverConfig()
	if mutateSolver != nil {
		mutateSolver(&solverCfg)
	}
	solver, err := valuation.NewSolver(solverCfg)
	require.NoError(t, err)

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewService(solver, cfg, metrics)
	require.NoError(t, err)

	return &harness{svc: svc, spans: spans, reader: reader}
}

func (h *harness) calculations(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "rdcf_valuation_calculations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				op, _ := dp.Attributes.Value(telemetry.AttrOperation)
				outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
				out[op.AsString()+"/"+outcome.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestNewService_Validation(t *testing.T) {
	solver, err := valuation.NewSolver(valuation.DefaultSolverConfig())
	require.NoError(t, err)

	_, err = NewService(nil, testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Sensitivity.Step = 0
	_, err = NewService(solver, cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.BatchConcurrency = 0
	_, err = NewService(solver, cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Timeout = -time.Second
	_, err = NewService(solver, cfg, nil)
	assert.Error(t, err)

	svc, err := NewService(solver, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, testConfig(), svc.Config())
	assert.Equal(t, valuation.DefaultSolverConfig(), svc.SolverConfig())
}

func TestService_Calculate(t *testing.T) {
	h := newHarness(t, nil, nil)
	a := exampleAssumptions()

	res, err := h.svc.Calculate(context.Background(), CalculateCommand{Assumptions: a})
	require.NoError(t, err)

	assert.InDelta(t, 12.50, res.ImpliedStockPrice, 0.01)
	assert.InDelta(t, 0.5624, res.ImpliedGrowthRate, 0.001)
	assert.Equal(t, 12.50, res.CurrentStockPrice)

	price, err := valuation.Value(a, res.ImpliedGrowthRate)
	require.NoError(t, err)
	assert.Equal(t, price, res.ImpliedStockPrice)

	assert.InDelta(t, 1.5562624386651882, res.IntrinsicValue, 1e-12)
	assert.InDelta(t, 1556.2624386651882, res.IntrinsicEquityValue, 1e-9)
	assert.Equal(t, 0.0, res.BaselineGrowthRate)

	require.Len(t, res.Sensitivity, 9)
	center, ok := res.Sensitivity.Center()
	require.True(t, ok)
	assert.Equal(t, res.ImpliedStockPrice, center.ImpliedStockPrice)
	assert.Equal(t, res.ImpliedGrowthRate, res.Sensitivity[4].GrowthRate)
	assert.Greater(t, res.Sensitivity[5].ImpliedStockPrice, res.Sensitivity[4].ImpliedStockPrice)

	assert.True(t, res.EnterpriseValue.Converged)
	assert.InDelta(t, -16.67, res.EnterpriseValue.DifferencePercent, 0.1)
	assert.Greater(t, res.EnterpriseValue.ImpliedGrowthRate, res.ImpliedGrowthRate)

	assert.NotEmpty(t, res.Solver.Method)
	assert.Positive(t, res.Solver.Iterations)

	spans := h.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "valuation.calculate", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, map[string]int64{"calculate/success": 1}, h.calculations(t))
}

func TestService_Calculate_TerminalBaseline(t *testing.T) {
	h := newHarness(t, func(c *valuation.SolverConfig) { c.Baseline = valuation.BaselineTerminal }, nil)
	a := exampleAssumptions()

	res, err := h.svc.Calculate(context.Background(), CalculateCommand{Assumptions: a})
	require.NoError(t, err)

	want, err := valuation.Value(a, a.TerminalGrowthRate)
	require.NoError(t, err)
	assert.Equal(t, a.TerminalGrowthRate, res.BaselineGrowthRate)
	assert.Equal(t, want, res.IntrinsicValue)
}

func TestService_Calculate_InvalidAssumptions(t *testing.T) {
	h := newHarness(t, nil, nil)
	a := exampleAssumptions()
	a.TerminalGrowthRate = 0.08

	res, err := h.svc.Calculate(context.Background(), CalculateCommand{Assumptions: a})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, valuation.ErrInvalidAssumption)

	var verrs valuation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, valuation.FieldTerminalGrowthRate, verrs[0].Field)

	spans := h.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, map[string]int64{"calculate/invalid": 1}, h.calculations(t))
}

func TestService_Calculate_NotConverged(t *testing.T) {
	h := newHarness(t, func(c *valuation.SolverConfig) { c.MaxBracketExpansions = 0 }, nil)
	a := exampleAssumptions()
	a.CurrentStockPrice = 1000

	_, err := h.svc.Calculate(context.Background(), CalculateCommand{Assumptions: a})
	require.Error(t, err)
	assert.ErrorIs(t, err, valuation.ErrNotConverged)
	assert.Equal(t, telemetry.OutcomeNotConverged, OutcomeOf(err))

	spans := h.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, map[string]int64{"calculate/not_converged": 1}, h.calculations(t))
}

func TestService_Calculate_Canceled(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Calculate(ctx, CalculateCommand{Assumptions: exampleAssumptions()})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "CANCELED", de.Code)
}

func TestService_CustomGrowth(t *testing.T) {
	h := newHarness(t, nil, nil)

	res, err := h.svc.CustomGrowth(context.Background(), CustomGrowthCommand{
		Assumptions:      exampleAssumptions(),
		CustomGrowthRate: 0.05,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.05, res.GrowthRate)
	assert.Equal(t, 12.50, res.CurrentStockPrice)
	assert.InDelta(t, 1.936491584981329, res.ImpliedStockPrice, 1e-12)
	require.Len(t, res.Path, 3)
	assert.InDelta(t, 2.033316164230395, res.Path[0].ProjectedPrice, 1e-12)
	assert.InDelta(t, 2.1349819724419152, res.Path[1].ProjectedPrice, 1e-12)
	assert.InDelta(t, 2.2417310710640117, res.Path[2].ProjectedPrice, 1e-12)

	assert.Equal(t, map[string]int64{"custom_growth/success": 1}, h.calculations(t))
}

func TestService_CustomGrowth_OutOfRange(t *testing.T) {
	h := newHarness(t, nil, nil)

	_, err := h.svc.CustomGrowth(context.Background(), CustomGrowthCommand{
		Assumptions:      exampleAssumptions(),
		CustomGrowthRate: 1.0,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, valuation.ErrInvalidAssumption)
	assert.Equal(t, map[string]int64{"custom_growth/invalid": 1}, h.calculations(t))
}

func TestService_Batch(t *testing.T) {
	h := newHarness(t, nil, nil)

	invalid := exampleAssumptions()
	invalid.FreeCashFlow = -5

	higher := exampleAssumptions()
	higher.CurrentStockPrice = 20

	res, err := h.svc.Batch(context.Background(), BatchCommand{Items: []BatchItem{
		{ID: "base", Assumptions: exampleAssumptions()},
		{Assumptions: invalid},
		{ID: "higher", Assumptions: higher},
	}})
	require.NoError(t, err)

	require.Len(t, res.Items, 3)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	for i, item := range res.Items {
		assert.Equal(t, i, item.Index)
		assert.NotEmpty(t, item.ID)
	}
	assert.Equal(t, "base", res.Items[0].ID)
	assert.Equal(t, "higher", res.Items[2].ID)

	require.NoError(t, res.Items[0].Err)
	require.NoError(t, res.Items[2].Err)
	assert.Greater(t, res.Items[2].Result.ImpliedGrowthRate, res.Items[0].Result.ImpliedGrowthRate)

	assert.Nil(t, res.Items[1].Result)
	assert.ErrorIs(t, res.Items[1].Err, valuation.ErrInvalidAssumption)

	assert.Equal(t, map[string]int64{
		"calculate/success": 2,
		"calculate/invalid": 1,
		"batch/success":     1,
	}, h.calculations(t))
}

func TestService_Batch_Limits(t *testing.T) {
	h := newHarness(t, nil, func(c *Config) { c.MaxBatchItems = 2 })

	_, err := h.svc.Batch(context.Background(), BatchCommand{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	items := []BatchItem{
		{Assumptions: exampleAssumptions()},
		{Assumptions: exampleAssumptions()},
		{Assumptions: exampleAssumptions()},
	}
	_, err = h.svc.Batch(context.Background(), BatchCommand{Items: items})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Contains(t, err.Error(), "limit is 2")
}

func TestService_LogsWithItemID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	h := newHarness(t, nil, nil)
	_, err := h.svc.Batch(ctx, BatchCommand{Items: []BatchItem{{ID: "only", Assumptions: exampleAssumptions()}}})
	require.NoError(t, err)

	solved := logs.FilterMessage("Reverse DCF solved").All()
	require.Len(t, solved, 1)
	assert.Equal(t, "only", solved[0].ContextMap()["item_id"])
	assert.NotEmpty(t, solved[0].ContextMap()["trace_id"])

	assert.Equal(t, 1, logs.FilterMessage("Batch valuation finished").Len())
}

func TestService_SelfCheck(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.svc.SelfCheck(context.Background()))
	assert.Empty(t, h.calculations(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.svc.SelfCheck(ctx), shared.ErrCanceled)
}

func TestBounded_DiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	start := time.Now()
	v, err := bounded(context.Background(), 20*time.Millisecond, "calculate", func(context.Context) (int, error) {
		<-release
		return 42, nil
	})

	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, v)
	assert.ErrorIs(t, err, shared.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "20ms")
	assert.Equal(t, telemetry.OutcomeTimeout, OutcomeOf(err))
}

func TestBounded_PassesThroughErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := bounded(context.Background(), 0, "calculate", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, telemetry.OutcomeError, OutcomeOf(err))

	v, err := bounded(context.Background(), 0, "calculate", func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, telemetry.OutcomeSuccess, OutcomeOf(nil))
	assert.Equal(t, telemetry.OutcomeInvalid, OutcomeOf(ErrEmptyBatch))
	assert.Equal(t, telemetry.OutcomeUndefined, OutcomeOf(&valuation.UndefinedValuationError{Reason: "x"}))
	assert.Equal(t, telemetry.OutcomeCanceled, OutcomeOf(contextError(context.Canceled, 0)))
}
