package valuation

import (
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
)

// CalculateCommand requests the market-implied growth rate for one company.
type CalculateCommand struct {
	Assumptions valuation.Assumptions
}

// CustomGrowthCommand values a company at a caller-chosen growth rate.
type CustomGrowthCommand struct {
	Assumptions      valuation.Assumptions
	CustomGrowthRate float64
}

// BatchItem is one company in a batch request.
type BatchItem struct {
	// ID is echoed back in the result. A random ID is assigned when empty.
	ID          string
	Assumptions valuation.Assumptions
}

// BatchCommand runs the primary calculation for many companies.
type BatchCommand struct {
	Items []BatchItem
}

// SolverStats describes how the root finder reached its answer.
type SolverStats struct {
	Method            string
	Iterations        int
	BracketExpansions int
	Residual          float64
}

// CalculationResult is the outcome of the primary calculation.
type CalculationResult struct {
	CurrentStockPrice    float64
	ImpliedGrowthRate    float64
	ImpliedStockPrice    float64
	IntrinsicValue       float64
	IntrinsicEquityValue float64
	BaselineGrowthRate   float64
	Sensitivity          valuation.SensitivityTable
	EnterpriseValue      valuation.EnterpriseValueCheck
	Solver               SolverStats
}

// CustomGrowthResult is the outcome of a custom-growth calculation.
type CustomGrowthResult struct {
	CurrentStockPrice float64
	valuation.Projection
}

// BatchItemResult holds either Result or Err for one item.
type BatchItemResult struct {
	Index  int
	ID     string
	Result *CalculationResult
	Err    error
}

// BatchResult keeps items in request order.
type BatchResult struct {
	Items     []BatchItemResult
	Succeeded int
	Failed    int
}
