package dto

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	appvaluation "github.com/arvinbobis/reverse-dcf/internal/application/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/domain/shared/valueobject"
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
)

// Output precision.
const (
	PricePlaces   int32 = 4
	RatePlaces    int32 = 6
	PercentPlaces int32 = 2
)

// FieldRateUnit names the rate unit in validation errors.
const FieldRateUnit = "rate_unit"

// AssumptionsRequest carries the inputs shared by every valuation endpoint.
// Numbers may be sent as JSON numbers or numeric strings.
// @Description Valuation assumptions
type AssumptionsRequest struct {
	CurrentStockPrice  *Number `json:"current_stock_price" binding:"required" swaggertype:"number" example:"12.50"`
	FreeCashFlow       *Number `json:"free_cash_flow" binding:"required" swaggertype:"number" example:"100"`
	SharesOutstanding  *Number `json:"shares_outstanding" binding:"required" swaggertype:"number" example:"1000"`
	WACC               *Number `json:"wacc" binding:"required" swaggertype:"number" example:"0.08"`
	TerminalGrowthRate *Number `json:"terminal_growth_rate" binding:"required" swaggertype:"number" example:"0.02"`
	ProjectionYears    *Number `json:"projection_years" binding:"required" swaggertype:"integer" example:"5"`
	EnterpriseValue    *Number `json:"enterprise_value" binding:"required" swaggertype:"number" example:"15000"`
	// RateUnit applies to wacc, terminal_growth_rate and custom_growth_rate.
	RateUnit string `json:"rate_unit" binding:"omitempty,oneof=decimal percent" enums:"decimal,percent" example:"decimal"`
}

// Assumptions converts the request into engine inputs. It fails only when
// a value cannot be converted; the error then also lists every constraint
// the converted values break. Constraint checks alone are left to the engine.
func (r AssumptionsRequest) Assumptions() (valuation.Assumptions, error) {
	var errs valuation.ValidationErrors

	unit, err := valueobject.ParseRateUnit(r.RateUnit)
	if err != nil {
		errs = append(errs, &valuation.ValidationError{Field: FieldRateUnit, Reason: "must be decimal or percent"})
		unit = valueobject.RateUnitDecimal
	}

	num := func(field string, n *Number) float64 {
		if n == nil {
			errs = append(errs, &valuation.ValidationError{Field: field, Reason: "is required"})
			return 0
		}
		return n.Float64()
	}
	rate := func(field string, n *Number) float64 {
		if n == nil {
			errs = append(errs, &valuation.ValidationError{Field: field, Reason: "is required"})
			return 0
		}
		return toRate(n, unit)
	}

	a := valuation.Assumptions{
		CurrentStockPrice:  num(valuation.FieldCurrentStockPrice, r.CurrentStockPrice),
		FreeCashFlow:       num(valuation.FieldFreeCashFlow, r.FreeCashFlow),
		SharesOutstanding:  num(valuation.FieldSharesOutstanding, r.SharesOutstanding),
		WACC:               rate(valuation.FieldWACC, r.WACC),
		TerminalGrowthRate: rate(valuation.FieldTerminalGrowthRate, r.TerminalGrowthRate),
		EnterpriseValue:    num(valuation.FieldEnterpriseValue, r.EnterpriseValue),
	}

	switch {
	case r.ProjectionYears == nil:
		errs = append(errs, &valuation.ValidationError{Field: valuation.FieldProjectionYears, Reason: "is required"})
	case !r.ProjectionYears.IsInteger():
		errs = append(errs, &valuation.ValidationError{Field: valuation.FieldProjectionYears, Reason: "must be a whole number"})
	default:
		// Out-of-range counts stay 0 and fail Validate's range check.
		if years := r.ProjectionYears.Decimal; !years.LessThan(decimal.NewFromInt(1)) &&
			!years.GreaterThan(decimal.NewFromInt(valuation.MaxProjectionYears)) {
			a.ProjectionYears = int(years.IntPart())
		}
	}

	if len(errs) == 0 {
		return a, nil
	}
	return a, mergeValidation(errs, a.Validate())
}

// mergeValidation appends constraint failures for fields not already
// reported by conversion.
func mergeValidation(errs valuation.ValidationErrors, validateErr error) valuation.ValidationErrors {
	more, ok := validateErr.(valuation.ValidationErrors)
	if !ok {
		return errs
	}
	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		seen[e.Field] = true
	}
	for _, e := range more {
		if !seen[e.Field] {
			errs = append(errs, e)
		}
	}
	return errs
}

func toRate(n *Number, unit valueobject.RateUnit) float64 {
	r, err := valueobject.NewRate(n.Decimal, unit)
	if err != nil {
		return n.Float64()
	}
	return r.Float64()
}

// CustomGrowthRequest values a company at a chosen growth rate.
// @Description Assumptions plus a custom growth rate
type CustomGrowthRequest struct {
	AssumptionsRequest
	CustomGrowthRate *Number `json:"custom_growth_rate" binding:"required" swaggertype:"number" example:"0.05"`
}

// GrowthRate returns the custom growth rate in decimal form.
func (r CustomGrowthRequest) GrowthRate() (float64, error) {
	if r.CustomGrowthRate == nil {
		return 0, valuation.ValidationErrors{{Field: valuation.FieldCustomGrowthRate, Reason: "is required"}}
	}
	unit, err := valueobject.ParseRateUnit(r.RateUnit)
	if err != nil {
		unit = valueobject.RateUnitDecimal
	}
	return toRate(r.CustomGrowthRate, unit), nil
}

// BatchItemRequest is one company of a batch.
// @Description Batch item
type BatchItemRequest struct {
	ID string `json:"id" binding:"omitempty,max=64" example:"ACME"`
	AssumptionsRequest
}

// BatchRequest runs the primary calculation for several companies.
// @Description Batch of valuation requests
type BatchRequest struct {
	Items []BatchItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Command converts every item. Input that cannot be converted fails the
// whole request with field names like "items[2].projection_years";
// assumptions that convert but break a constraint are left for the service
// to report per item.
func (r BatchRequest) Command() (appvaluation.BatchCommand, error) {
	cmd := appvaluation.BatchCommand{Items: make([]appvaluation.BatchItem, 0, len(r.Items))}
	var errs valuation.ValidationErrors
	for i, item := range r.Items {
		a, err := item.Assumptions()
		var itemErrs valuation.ValidationErrors
		if errors.As(err, &itemErrs) {
			for _, e := range itemErrs {
				errs = append(errs, &valuation.ValidationError{
					Field:  fmt.Sprintf("items[%d].%s", i, e.Field),
					Reason: e.Reason,
				})
			}
			continue
		}
		cmd.Items = append(cmd.Items, appvaluation.BatchItem{ID: item.ID, Assumptions: a})
	}
	if len(errs) > 0 {
		return appvaluation.BatchCommand{}, errs
	}
	return cmd, nil
}

// SensitivityPointResponse is one row of the sensitivity table.
// @Description Sensitivity grid point
type SensitivityPointResponse struct {
	Offset            float64 `json:"offset" example:"-0.01"`
	GrowthRate        float64 `json:"growth_rate" example:"0.231"`
	ImpliedStockPrice float64 `json:"implied_stock_price" example:"11.8473"`
	PercentFromMarket float64 `json:"percent_from_market" example:"-5.22"`
}

// EnterpriseValueCheckResponse compares the reported enterprise value with
// the model.
// @Description Enterprise value cross-check
type EnterpriseValueCheckResponse struct {
	ReportedEnterpriseValue float64  `json:"reported_enterprise_value" example:"15000"`
	ModelValue              float64  `json:"model_value" example:"12500"`
	DifferencePercent       float64  `json:"difference_percent" example:"-16.67"`
	ImpliedGrowthRate       *float64 `json:"implied_growth_rate,omitempty" example:"0.27"`
	Converged               bool     `json:"converged" example:"true"`
	Reason                  string   `json:"reason,omitempty"`
}

// SolverResponse describes how the implied growth rate was found.
// @Description Solver diagnostics
type SolverResponse struct {
	Method            string  `json:"method" example:"newton"`
	Iterations        int     `json:"iterations" example:"6"`
	BracketExpansions int     `json:"bracket_expansions" example:"0"`
	Residual          float64 `json:"residual" example:"0.0000001"`
}

// CalculationResponse is the body of a primary calculation.
// @Description Reverse DCF result
type CalculationResponse struct {
	CurrentStockPrice    float64                      `json:"current_stock_price" example:"12.5"`
	ImpliedGrowthRate    float64                      `json:"implied_growth_rate" example:"0.241"`
	ImpliedStockPrice    float64                      `json:"implied_stock_price" example:"12.5"`
	IntrinsicValue       float64                      `json:"intrinsic_value" example:"1.4617"`
	IntrinsicEquityValue float64                      `json:"intrinsic_equity_value" example:"1461.7"`
	BaselineGrowthRate   float64                      `json:"baseline_growth_rate" example:"0"`
	SensitivityAnalysis  []SensitivityPointResponse   `json:"sensitivity_analysis"`
	EnterpriseValueCheck EnterpriseValueCheckResponse `json:"enterprise_value_check"`
	Solver               SolverResponse               `json:"solver"`
}

// NewCalculationResponse rounds prices to PricePlaces and rates to
// RatePlaces.
func NewCalculationResponse(res *appvaluation.CalculationResult) CalculationResponse {
	market := res.CurrentStockPrice
	points := make([]SensitivityPointResponse, len(res.Sensitivity))
	for i, p := range res.Sensitivity {
		points[i] = SensitivityPointResponse{
			Offset:            RoundRate(p.Offset),
			GrowthRate:        RoundRate(p.GrowthRate),
			ImpliedStockPrice: RoundPrice(p.ImpliedStockPrice),
			PercentFromMarket: PercentFromMarket(p.ImpliedStockPrice, market),
		}
	}

	ev := res.EnterpriseValue
	check := EnterpriseValueCheckResponse{
		ReportedEnterpriseValue: RoundPrice(ev.ReportedEnterpriseValue),
		ModelValue:              RoundPrice(ev.ModelValue),
		DifferencePercent:       roundPlaces(ev.DifferencePercent, PercentPlaces),
		Converged:               ev.Converged,
		Reason:                  ev.Reason,
	}
	if ev.Converged {
		g := RoundRate(ev.ImpliedGrowthRate)
		check.ImpliedGrowthRate = &g
	}

	return CalculationResponse{
		CurrentStockPrice:    RoundPrice(market),
		ImpliedGrowthRate:    RoundRate(res.ImpliedGrowthRate),
		ImpliedStockPrice:    RoundPrice(res.ImpliedStockPrice),
		IntrinsicValue:       RoundPrice(res.IntrinsicValue),
		IntrinsicEquityValue: RoundPrice(res.IntrinsicEquityValue),
		BaselineGrowthRate:   RoundRate(res.BaselineGrowthRate),
		SensitivityAnalysis:  points,
		EnterpriseValueCheck: check,
		Solver: SolverResponse{
			Method:            res.Solver.Method,
			Iterations:        res.Solver.Iterations,
			BracketExpansions: res.Solver.BracketExpansions,
			Residual:          res.Solver.Residual,
		},
	}
}

// ProjectionPointResponse is the model price a number of years ahead.
// @Description Projected price point
type ProjectionPointResponse struct {
	Year                  int     `json:"year" example:"1"`
	ProjectedFreeCashFlow float64 `json:"projected_free_cash_flow" example:"105"`
	ProjectedPrice        float64 `json:"projected_price" example:"1.8406"`
	PercentFromMarket     float64 `json:"percent_from_market" example:"-85.28"`
}

// CustomGrowthResponse is the body of a custom-growth calculation.
// @Description Custom growth valuation with projected prices
type CustomGrowthResponse struct {
	CustomGrowthRate  float64                   `json:"custom_growth_rate" example:"0.05"`
	CurrentStockPrice float64                   `json:"current_stock_price" example:"12.5"`
	ImpliedStockPrice float64                   `json:"implied_stock_price" example:"1.753"`
	PercentFromMarket float64                   `json:"percent_from_market" example:"-85.98"`
	ProjectedPrices   []ProjectionPointResponse `json:"projected_prices"`
}

// NewCustomGrowthResponse rounds prices to PricePlaces and rates to
// RatePlaces.
func NewCustomGrowthResponse(res *appvaluation.CustomGrowthResult) CustomGrowthResponse {
	market := res.CurrentStockPrice
	path := make([]ProjectionPointResponse, len(res.Path))
	for i, p := range res.Path {
		path[i] = ProjectionPointResponse{
			Year:                  p.Year,
			ProjectedFreeCashFlow: RoundPrice(p.ProjectedFreeCashFlow),
			ProjectedPrice:        RoundPrice(p.ProjectedPrice),
			PercentFromMarket:     PercentFromMarket(p.ProjectedPrice, market),
		}
	}
	return CustomGrowthResponse{
		CustomGrowthRate:  RoundRate(res.GrowthRate),
		CurrentStockPrice: RoundPrice(market),
		ImpliedStockPrice: RoundPrice(res.ImpliedStockPrice),
		PercentFromMarket: PercentFromMarket(res.ImpliedStockPrice, market),
		ProjectedPrices:   path,
	}
}

// BatchItemResponse holds either Data or Error for one batch item.
// @Description Batch item result
type BatchItemResponse struct {
	Index   int                  `json:"index" example:"0"`
	ID      string               `json:"id" example:"ACME"`
	Success bool                 `json:"success" example:"true"`
	Data    *CalculationResponse `json:"data,omitempty"`
	Error   *ErrorInfo           `json:"error,omitempty"`
}

// BatchResponse keeps items in request order.
// @Description Batch valuation result
type BatchResponse struct {
	Items []BatchItemResponse `json:"items"`
}

// RoundPrice rounds a per-share or total amount to PricePlaces.
func RoundPrice(v float64) float64 {
	p, err := valueobject.NewPriceFromFloat(v)
	if err != nil {
		return v
	}
	return p.Round(PricePlaces).Float64()
}

// RoundRate rounds a decimal-form rate to RatePlaces.
func RoundRate(v float64) float64 {
	r, err := valueobject.NewRateFromFloat(v)
	if err != nil {
		return v
	}
	return r.Round(RatePlaces).Float64()
}

// PercentFromMarket is the percentage difference of price against the
// market price, e.g. 11 against 10 gives 10.
func PercentFromMarket(price, market float64) float64 {
	p, err := valueobject.NewPriceFromFloat(price)
	if err != nil {
		return 0
	}
	base, err := valueobject.NewPriceFromFloat(market)
	if err != nil {
		return 0
	}
	pct, err := p.PercentFrom(base)
	if err != nil {
		return 0
	}
	f, _ := pct.Round(PercentPlaces).Float64()
	return f
}

func roundPlaces(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
