package valuation

import "math"

// ProjectionHorizon is the number of forward years in a projection path.
const ProjectionHorizon = 3

// ProjectionPoint is the model price k years from now.
type ProjectionPoint struct {
	Year                  int
	ProjectedFreeCashFlow float64
	ProjectedPrice        float64
}

// ProjectionPath is ordered by year, starting at 1.
type ProjectionPath []ProjectionPoint

// Projection is the result of a custom-growth calculation.
type Projection struct {
	GrowthRate        float64
	ImpliedStockPrice float64
	Path              ProjectionPath
}

// Project values a at a caller-chosen growth rate and rolls the valuation
// forward ProjectionHorizon years.
//
// Year k re-bases the model: the starting free cash flow becomes
// FreeCashFlow*(1+g)^k and the full DCF is recomputed over the same
// ProjectionYears at the same growth rate. The horizon does not extend.
// With g > 0 the path is strictly increasing.
func Project(a Assumptions, growth float64) (Projection, error) {
	if err := a.Validate(); err != nil {
		return Projection{}, err
	}
	if err := ValidateCustomGrowthRate(growth); err != nil {
		return Projection{}, err
	}

	price, err := Value(a, growth)
	if err != nil {
		return Projection{}, err
	}

	path := make(ProjectionPath, 0, ProjectionHorizon)
	for year := 1; year <= ProjectionHorizon; year++ {
		fcf := a.FreeCashFlow * math.Pow(1+growth, float64(year))
		projected, err := Value(a.WithFreeCashFlow(fcf), growth)
		if err != nil {
			return Projection{}, err
		}
		path = append(path, ProjectionPoint{
			Year:                  year,
			ProjectedFreeCashFlow: fcf,
			ProjectedPrice:        projected,
		})
	}

	return Projection{
		GrowthRate:        growth,
		ImpliedStockPrice: price,
		Path:              path,
	}, nil
}
