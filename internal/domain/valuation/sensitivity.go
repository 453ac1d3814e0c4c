package valuation

import (
	"errors"
	"fmt"
	"math"
)

// SensitivityConfig controls the growth-rate grid around the implied rate.
type SensitivityConfig struct {
	// Step is the distance between neighbouring grid points, in decimal form.
	Step float64
	// PointsPerSide is the number of points below and above the center.
	PointsPerSide int
}

// DefaultSensitivityConfig yields the nine points g-4% .. g+4%.
func DefaultSensitivityConfig() SensitivityConfig {
	return SensitivityConfig{Step: 0.01, PointsPerSide: 4}
}

// Validate checks the grid settings.
func (c SensitivityConfig) Validate() error {
	if !(c.Step > 0) || math.IsInf(c.Step, 0) {
		return fmt.Errorf("sensitivity step must be positive, got %g", c.Step)
	}
	if c.PointsPerSide < 0 {
		return errors.New("sensitivity points per side cannot be negative")
	}
	return nil
}

// SensitivityPoint is one evaluation of the grid.
type SensitivityPoint struct {
	Offset            float64
	GrowthRate        float64
	ImpliedStockPrice float64
}

// SensitivityTable is ordered by ascending growth rate.
type SensitivityTable []SensitivityPoint

// Center returns the zero-offset point.
func (t SensitivityTable) Center() (SensitivityPoint, bool) {
	for _, p := range t {
		if p.Offset == 0 {
			return p, true
		}
	}
	return SensitivityPoint{}, false
}

// Sensitivity evaluates Value at center+i*Step for i in
// [-PointsPerSide, PointsPerSide]. Offsets are multiplied rather than
// accumulated, so the middle point is evaluated at exactly center. Points
// where the model is undefined (growth at or below -100%) are left out.
func Sensitivity(a Assumptions, center float64, cfg SensitivityConfig) (SensitivityTable, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table := make(SensitivityTable, 0, 2*cfg.PointsPerSide+1)
	for i := -cfg.PointsPerSide; i <= cfg.PointsPerSide; i++ {
		offset := float64(i) * cfg.Step
		g := center + offset
		price, err := Value(a, g)
		if err != nil {
			var undefined *UndefinedValuationError
			if i != 0 && errors.As(err, &undefined) {
				continue
			}
			return nil, err
		}
		table = append(table, SensitivityPoint{
			Offset:            offset,
			GrowthRate:        g,
			ImpliedStockPrice: price,
		})
	}
	return table, nil
}
