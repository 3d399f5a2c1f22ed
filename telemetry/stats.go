package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarises the population of one generation.
type GenerationStats struct {
	Round      int `csv:"round"`      // commit round
	Generation int `csv:"generation"` // generation within the round
	Committed  int `csv:"committed"`  // frames committed before this round

	BestFitness float64 `csv:"best"`
	MeanFitness float64 `csv:"mean"`
	StdFitness  float64 `csv:"std"`
	P10Fitness  float64 `csv:"p10"`
	P50Fitness  float64 `csv:"p50"`
	P90Fitness  float64 `csv:"p90"`

	BestReached int `csv:"best_reached"` // checkpoints reached by the best genome
	Dead        int `csv:"dead"`         // genomes that died
	Finished    int `csv:"finished"`     // genomes that reached the final checkpoint
}

// Distribution holds mean, spread and quantiles of a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution returns the sample mean, sample standard deviation
// and empirical quantiles of values. Empty input yields the zero value.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var d Distribution
	if len(sorted) == 1 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	}
	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// SetFitness fills the fitness columns from one generation's fitness values.
func (s *GenerationStats) SetFitness(values []float64) {
	d := ComputeDistribution(values)
	s.MeanFitness, s.StdFitness = d.Mean, d.Std
	s.P10Fitness, s.P50Fitness, s.P90Fitness = d.P10, d.P50, d.P90
	if len(values) > 0 {
		s.BestFitness = slices.Max(values)
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("round", s.Round),
		slog.Int("generation", s.Generation),
		slog.Int("committed", s.Committed),
		slog.Float64("best", s.BestFitness),
		slog.Float64("mean", s.MeanFitness),
		slog.Float64("std", s.StdFitness),
		slog.Float64("p50", s.P50Fitness),
		slog.Int("best_reached", s.BestReached),
		slog.Int("dead", s.Dead),
		slog.Int("finished", s.Finished),
	)
}

// FrameStats records one committed frame of the greedy runner.
type FrameStats struct {
	Frame      int     `csv:"frame"`
	Angle      string  `csv:"angle"`
	Score      float64 `csv:"score"`
	Evaluated  int     `csv:"evaluated"`
	X          int32   `csv:"x"`
	Y          int32   `csv:"y"`
	SpeedX     float32 `csv:"speed_x"`
	SpeedY     float32 `csv:"speed_y"`
	Checkpoint int     `csv:"checkpoint"` // index of the checkpoint being chased
	Outcome    string  `csv:"outcome"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.String("angle", s.Angle),
		slog.Float64("score", s.Score),
		slog.Int("x", int(s.X)),
		slog.Int("y", int(s.Y)),
		slog.Int("checkpoint", s.Checkpoint),
		slog.String("outcome", s.Outcome),
	)
}
