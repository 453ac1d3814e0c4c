// Command reversedcf runs a single valuation from the command line and
// prints the same JSON body the HTTP API returns.
//
//	reversedcf --price 12.50 --fcf 100 --shares 1000 --wacc 0.08 \
//	    --terminal-growth 0.02 --years 5 --enterprise-value 15000
//	reversedcf --custom-growth 5 --rate-unit percent ...
//	reversedcf --batch --file companies.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	appvaluation "github.com/arvinbobis/reverse-dcf/internal/application/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/config"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/dto"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/handler"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/middleware"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath string
	file       string
	batch      bool
	rateUnit   string
	logLevel   string
	fields     map[string]*string
	custom     string
}

// assumptionFlags maps flag names onto request fields.
var assumptionFlags = []struct{ flag, field, usage string }{
	{"price", valuation.FieldCurrentStockPrice, "Current stock price"},
	{"fcf", valuation.FieldFreeCashFlow, "Free cash flow for the base year"},
	{"shares", valuation.FieldSharesOutstanding, "Shares outstanding"},
	{"wacc", valuation.FieldWACC, "Weighted average cost of capital"},
	{"terminal-growth", valuation.FieldTerminalGrowthRate, "Terminal growth rate"},
	{"years", valuation.FieldProjectionYears, "Projection years (1-50)"},
	{"enterprise-value", valuation.FieldEnterpriseValue, "Reported enterprise value"},
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("reversedcf", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{fields: make(map[string]*string, len(assumptionFlags))}
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a config file")
	fs.StringVarP(&opts.file, "file", "f", "", "Read the request body from a JSON file (- for stdin)")
	fs.BoolVar(&opts.batch, "batch", false, "Treat the request body as a batch")
	fs.StringVar(&opts.rateUnit, "rate-unit", "", "Unit of rate flags: decimal (default) or percent")
	fs.StringVar(&opts.custom, "custom-growth", "", "Value at this growth rate instead of solving for it")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	for _, f := range assumptionFlags {
		opts.fields[f.field] = fs.String(f.flag, "", f.usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.batch && opts.file == "" {
		return nil, fmt.Errorf("--batch requires --file")
	}
	if opts.batch && opts.custom != "" {
		return nil, fmt.Errorf("--batch and --custom-growth cannot be combined")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(stderr, "reversedcf:", err)
		}
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, "reversedcf:", err)
		return exitUsage
	}

	logCfg := cfg.Log.LoggerConfig()
	logCfg.Level = opts.logLevel
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintln(stderr, "reversedcf:", err)
		return exitUsage
	}
	defer func() {
		_ = log.Sync()
	}()
	ctx = logger.WithContext(ctx, log)

	svc, err := newService(cfg)
	if err != nil {
		log.Error("Failed to create valuation service", zap.Error(err))
		return exitFailed
	}

	body, err := requestBody(opts, stdin)
	if err != nil {
		fmt.Fprintln(stderr, "reversedcf:", err)
		return exitUsage
	}

	middleware.SetupValidator()
	data, err := execute(ctx, svc, opts, body)
	if err != nil {
		_, resp := handler.ErrorResponseFor(err, "")
		_ = writeJSON(stdout, resp)
		log.Debug("Valuation failed", zap.Error(err))
		return exitFailed
	}

	if out, ok := data.(batchOutput); ok {
		res := out.BatchResult
		if err := writeJSON(stdout, dto.NewSuccessResponseWithMeta(handler.BatchResponseFor(res, ""), res.Succeeded, res.Failed)); err != nil {
			return exitFailed
		}
		if res.Failed > 0 {
			return exitFailed
		}
		return exitOK
	}
	if err := writeJSON(stdout, dto.NewSuccessResponse(data)); err != nil {
		return exitFailed
	}
	return exitOK
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newService(cfg *config.Config) (*appvaluation.Service, error) {
	solver, err := valuation.NewSolver(cfg.Valuation.SolverConfig())
	if err != nil {
		return nil, err
	}
	return appvaluation.NewService(solver, appvaluation.Config{
		Sensitivity:      cfg.Valuation.SensitivityConfig(),
		Timeout:          cfg.Valuation.Timeout,
		MaxBatchItems:    cfg.Batch.MaxItems,
		BatchConcurrency: cfg.Batch.Concurrency,
	}, nil)
}

// requestBody returns the JSON request, read from --file or assembled from
// the assumption flags. Flag values are passed through as strings so they
// are parsed exactly like API input.
func requestBody(opts *options, stdin io.Reader) ([]byte, error) {
	if opts.file != "" {
		if opts.file == "-" {
			return io.ReadAll(stdin)
		}
		return os.ReadFile(opts.file)
	}

	body := make(map[string]string, len(opts.fields)+2)
	for field, v := range opts.fields {
		if *v != "" {
			body[field] = *v
		}
	}
	if opts.rateUnit != "" {
		body[dto.FieldRateUnit] = opts.rateUnit
	}
	if opts.custom != "" {
		body[valuation.FieldCustomGrowthRate] = opts.custom
	}
	return json.Marshal(body)
}

// execute decodes and validates body the way the HTTP handlers do and runs
// the requested calculation.
func execute(ctx context.Context, svc *appvaluation.Service, opts *options, body []byte) (any, error) {
	switch {
	case opts.batch:
		var req dto.BatchRequest
		if err := decode(body, &req); err != nil {
			return nil, err
		}
		cmd, err := req.Command()
		if err != nil {
			return nil, err
		}
		res, err := svc.Batch(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return batchOutput{res}, nil

	case opts.custom != "" || hasField(body, valuation.FieldCustomGrowthRate):
		var req dto.CustomGrowthRequest
		if err := decode(body, &req); err != nil {
			return nil, err
		}
		a, err := req.Assumptions()
		if err != nil {
			return nil, err
		}
		g, err := req.GrowthRate()
		if err != nil {
			return nil, err
		}
		res, err := svc.CustomGrowth(ctx, appvaluation.CustomGrowthCommand{Assumptions: a, CustomGrowthRate: g})
		if err != nil {
			return nil, err
		}
		return dto.NewCustomGrowthResponse(res), nil

	default:
		var req dto.AssumptionsRequest
		if err := decode(body, &req); err != nil {
			return nil, err
		}
		a, err := req.Assumptions()
		if err != nil {
			return nil, err
		}
		res, err := svc.Calculate(ctx, appvaluation.CalculateCommand{Assumptions: a})
		if err != nil {
			return nil, err
		}
		return dto.NewCalculationResponse(res), nil
	}
}

// batchOutput carries the counts needed for the response meta.
type batchOutput struct {
	*appvaluation.BatchResult
}

func decode(body []byte, req any) error {
	if err := json.Unmarshal(body, req); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(req)
}

func hasField(body []byte, field string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	_, ok := probe[field]
	return ok
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
