// Package costmodel holds the per-vehicle energy models and the
// registry that maps profile keys to them. Models are opaque bulk
// predictors; the engine never looks inside them.
package costmodel

import (
	"fmt"
)

// FeatureRow is one edge's input to energy prediction.
type FeatureRow struct {
	SpeedMph      float64
	DistanceMiles float64
	GradePercent  float64
}

// CostModel predicts energy-per-mile for a batch of feature rows, one
// output per row. Predictions must be deterministic for identical
// inputs.
type CostModel interface {
	PredictEnergyRate(rows []FeatureRow) ([]float64, error)
}

// LinearEnergyModel is a builtin coefficient model: energy-per-mile as
// a linear function of speed deviation from a reference and of grade.
type LinearEnergyModel struct {
	BaseRate     float64
	SpeedCoef    float64
	GradeCoef    float64
	RefSpeedMph  float64
}

func (m LinearEnergyModel) PredictEnergyRate(rows []FeatureRow) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = m.BaseRate + m.SpeedCoef*(row.SpeedMph-m.RefSpeedMph) + m.GradeCoef*row.GradePercent
	}
	return out, nil
}

// DefaultModels returns the builtin vehicle profiles. Callers inject
// the result (or their own map) into NewRegistry explicitly; nothing
// constructs a registry implicitly.
func DefaultModels() map[string]CostModel {
	return map[string]CostModel{
		// gallons of gasoline per mile
		"gasoline": LinearEnergyModel{BaseRate: 0.034, SpeedCoef: 0.0003, GradeCoef: 0.0022, RefSpeedMph: 45},
		// kWh per mile
		"electric": LinearEnergyModel{BaseRate: 0.27, SpeedCoef: 0.0041, GradeCoef: 0.017, RefSpeedMph: 45},
	}
}

// ModelsForKeys filters the builtin models down to the requested
// profile keys.
func ModelsForKeys(keys []string) (map[string]CostModel, error) {
	all := DefaultModels()
	out := make(map[string]CostModel, len(keys))
	for _, key := range keys {
		model, ok := all[key]
		if !ok {
			return nil, fmt.Errorf("no builtin model for profile %q", key)
		}
		out[key] = model
	}
	return out, nil
}
