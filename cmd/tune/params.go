package main

import (
	"math"

	"github.com/pthm-cable/maunakea/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable evolve parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the tunable parameters. commit_frames is bounded
// by the genome length of the base config.
func NewParamVector(base config.EvolveConfig) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mutation_rate", Path: "evolve.mutation_rate", Min: 0.005, Max: 0.3, Default: base.MutationRate},
			{Name: "max_delta", Path: "evolve.max_delta", Min: 1000, Max: 90000, Default: float64(base.MaxDelta)},
			{Name: "reset_rate", Path: "evolve.reset_rate", Min: 0, Max: 0.5, Default: base.ResetRate},
			{Name: "selection_pressure", Path: "evolve.selection_pressure", Min: 1, Max: 2, Default: base.SelectionPressure},
			{Name: "crossover_rate", Path: "evolve.crossover_rate", Min: 0.3, Max: 1, Default: base.CrossoverRate},
			{Name: "commit_frames", Path: "evolve.commit_frames", Min: 1, Max: float64(base.GenomeLength - 1), Default: float64(base.CommitFrames)},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to an evolve config section.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.EvolveConfig, values []float64) {
	clamped := pv.Clamp(values)

	cfg.MutationRate = clamped[0]
	cfg.MaxDelta = int(math.Round(clamped[1]))
	cfg.ResetRate = clamped[2]
	cfg.SelectionPressure = clamped[3]
	cfg.CrossoverRate = clamped[4]
	cfg.CommitFrames = int(math.Round(clamped[5]))
}

// ExtractFromConfig extracts current parameter values from a config section.
func (pv *ParamVector) ExtractFromConfig(cfg config.EvolveConfig) []float64 {
	return []float64{
		cfg.MutationRate,
		float64(cfg.MaxDelta),
		cfg.ResetRate,
		cfg.SelectionPressure,
		cfg.CrossoverRate,
		float64(cfg.CommitFrames),
	}
}
