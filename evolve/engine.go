package evolve

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/scan"
	"github.com/pthm-cable/maunakea/telemetry"
)

// ErrNoProgress is returned when the best genome of a round dies before it
// can commit a single frame.
var ErrNoProgress = errors.New("evolve: best genome dies on its first frame")

// bookmarkHistory is the number of generations the bookmark detector
// averages over.
const bookmarkHistory = 5

// Result is the outcome of an evolutionary search.
type Result struct {
	scan.Run
	Rounds      int
	Generations int
	Best        Fitness // best genome of the last round
	Hall        *HallOfFame
}

// Engine runs the sliding-commit evolutionary search.
type Engine struct {
	Config      config.EvolveConfig
	Workers     int
	Table       *movement.Table
	Checkpoints []geom.Rect

	Logger   *slog.Logger
	Perf     *telemetry.PerfCollector
	LogEvery int // log every N generations, 0 disables

	OnGeneration func(telemetry.GenerationStats)
	OnBookmark   func(telemetry.Bookmark)
	OnPerf       func(stats telemetry.PerfStats, tick int)
}

// NewEngine creates an engine from the evolve config section.
func NewEngine(cfg config.EvolveConfig, workers int, table *movement.Table, checkpoints []geom.Rect) *Engine {
	return &Engine{
		Config:      cfg,
		Workers:     workers,
		Table:       table,
		Checkpoints: checkpoints,
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// newRNG seeds a PCG source; seed 0 draws a random seed.
func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Run searches from a copy of start. All randomness is drawn on the calling
// goroutine, so a fixed seed gives the same inputs for any worker count.
// Partial inputs are kept when the run is aborted or exhausted.
func (e *Engine) Run(ctx context.Context, start *player.State) Result {
	cfg := e.Config
	logger := e.logger()
	rng := newRNG(cfg.Seed)

	pool := newEvalPool(e.Workers)
	defer pool.stop()

	canonical := start.Clone()
	res := Result{
		Run:  scan.Run{Status: scan.Exhausted, Final: canonical},
		Hall: NewHallOfFame(cfg.HallSize),
	}
	if len(e.Checkpoints) == 0 {
		res.Status = scan.Success
		return res
	}

	stagnation := cfg.StagnationWindow
	if stagnation == 0 {
		stagnation = cfg.Generations + 1
	}
	detector := telemetry.NewBookmarkDetector(bookmarkHistory, stagnation)

	pop := make([]*Genome, cfg.Population)
	for i := range pop {
		pop[i] = NewGenome(randomGenes(rng, cfg.GenomeLength))
	}

	next := 0
	for round := 0; len(res.Inputs) < cfg.MaxFrames; round++ {
		res.Rounds = round + 1
		ev := &Evaluator{
			Table:       e.Table,
			Checkpoints: e.Checkpoints,
			Start:       canonical.Clone(),
			Next:        next,
			Scoring:     ScoringFromConfig(cfg),
			Logger:      logger,
		}
		res.Hall.Reset()

		ranked, err := e.evolveRound(ctx, rng, pool, ev, detector, res.Hall, pop, round, len(res.Inputs))
		res.Generations += cfg.Generations
		if err != nil {
			res.Status, res.Err = scan.Aborted, err
			return res
		}

		e.Perf.StartTick()
		e.Perf.StartPhase(telemetry.PhaseCommit)
		best := ranked[0]
		fit := best.Fitness(ev)
		res.Best = fit

		k := min(cfg.CommitFrames, cfg.MaxFrames-len(res.Inputs))
		switch {
		case fit.Finished:
			k = min(fit.Frames, cfg.MaxFrames-len(res.Inputs))
		case fit.Died:
			k = min(k, fit.Frames-1)
		}
		if k <= 0 {
			e.Perf.EndTick()
			logger.Warn("no committable frame", "round", round, "fitness", fit.Value)
			res.Status, res.Err = scan.Aborted, fmt.Errorf("round %d: %w", round, ErrNoProgress)
			return res
		}

		for _, a := range best.Genes[:k] {
			out, _ := canonical.Step(a, e.Table, e.Checkpoints[next])
			res.Inputs = append(res.Inputs, a)
			if out == player.CheckpointHit {
				logger.Info("checkpoint hit", "index", next, "frame", len(res.Inputs)-1)
				next++
				res.Checkpoints = next
				if next == len(e.Checkpoints) {
					break
				}
			}
		}
		e.Perf.EndTick()

		logger.Info("commit",
			"round", round,
			"frames", k,
			"committed", len(res.Inputs),
			"checkpoint", next,
			"best", fit.Value,
		)
		if next == len(e.Checkpoints) {
			res.Status = scan.Success
			return res
		}

		pop = shift(rng, ranked, k)
	}
	return res
}

// evolveRound runs one generation budget against ev and returns the final
// population ranked best first.
func (e *Engine) evolveRound(
	ctx context.Context,
	rng *rand.Rand,
	pool *evalPool,
	ev *Evaluator,
	detector *telemetry.BookmarkDetector,
	hall *HallOfFame,
	pop []*Genome,
	round, committed int,
) ([]*Genome, error) {
	cfg := e.Config
	logger := e.logger()

	var ranked []*Genome
	for gen := 0; gen < cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.Perf.StartTick()
		e.Perf.StartPhase(telemetry.PhaseEvaluate)
		pool.evaluate(pop, ev)
		ranked = rank(pop, ev)

		for _, g := range ranked[:min(len(ranked), max(hall.maxSize, 1))] {
			hall.Consider(g, g.Fitness(ev), round, gen)
		}

		stats := generationStats(ranked, ev, round, gen, committed)
		if e.OnGeneration != nil {
			e.OnGeneration(stats)
		}
		if e.LogEvery > 0 && gen%e.LogEvery == 0 {
			logger.Info("generation", "stats", stats)
		}

		var reseed bool
		for _, b := range detector.Check(stats) {
			b.LogBookmark(logger)
			if e.OnBookmark != nil {
				e.OnBookmark(b)
			}
			if b.Type == telemetry.BookmarkStagnation && cfg.StagnationWindow > 0 {
				reseed = true
			}
		}

		if gen < cfg.Generations-1 {
			e.Perf.StartPhase(telemetry.PhaseBreed)
			pop = e.breed(rng, ranked)
			if reseed {
				e.reseed(rng, pop, hall)
			}
		}
		e.Perf.EndTick()
		if e.Perf.WindowFull() && e.OnPerf != nil {
			e.OnPerf(e.Perf.Stats(), e.Perf.Ticks())
		}
	}
	return ranked, nil
}

// rank returns the population sorted by fitness, best first. Equal fitness
// keeps population order.
func rank(pop []*Genome, ev *Evaluator) []*Genome {
	ranked := slices.Clone(pop)
	slices.SortStableFunc(ranked, func(a, b *Genome) int {
		return cmp.Compare(b.Fitness(ev).Value, a.Fitness(ev).Value)
	})
	return ranked
}

// breed builds the next generation: the elite unchanged, the rest from rank
// selected parents through crossover and mutation.
func (e *Engine) breed(rng *rand.Rand, ranked []*Genome) []*Genome {
	cfg := e.Config
	n := len(ranked)
	next := make([]*Genome, 0, n)
	next = append(next, ranked[:min(cfg.Elite, n)]...)

	sel := newRankSelector(n, cfg.SelectionPressure)
	mut := mutation{rate: cfg.MutationRate, maxDelta: cfg.MaxDelta, resetRate: cfg.ResetRate}
	for len(next) < n {
		a := ranked[sel.pick(rng)]
		var genes []player.Angle
		if rng.Float64() < cfg.CrossoverRate {
			b := ranked[sel.pick(rng)]
			genes = crossover(rng, a.Genes, b.Genes, cfg.CrossoverPoints)
		} else {
			genes = slices.Clone(a.Genes)
		}
		mut.apply(rng, genes)
		next = append(next, NewGenome(genes))
	}
	return next
}

// reseed replaces the worst quarter of the bred population, past the
// elite: half with mutated hall of fame entries and half with fresh random
// genomes.
func (e *Engine) reseed(rng *rand.Rand, pop []*Genome, hall *HallOfFame) {
	cfg := e.Config
	n := max(len(pop)/4, 1)
	mut := mutation{rate: cfg.MutationRate, maxDelta: cfg.MaxDelta, resetRate: cfg.ResetRate}
	for i := range n {
		slot := len(pop) - 1 - i
		if slot < cfg.Elite {
			break
		}
		if genes := hall.Sample(rng); genes != nil && i%2 == 0 {
			mut.apply(rng, genes)
			pop[slot] = NewGenome(genes)
			continue
		}
		pop[slot] = NewGenome(randomGenes(rng, cfg.GenomeLength))
	}
}

// shift drops the first k genes of every genome and appends k random ones.
func shift(rng *rand.Rand, ranked []*Genome, k int) []*Genome {
	pop := make([]*Genome, len(ranked))
	for i, g := range ranked {
		genes := make([]player.Angle, len(g.Genes))
		copy(genes, g.Genes[k:])
		for j := len(g.Genes) - k; j < len(genes); j++ {
			genes[j] = randomAngle(rng)
		}
		pop[i] = NewGenome(genes)
	}
	return pop
}

// generationStats summarises a ranked, evaluated population.
func generationStats(ranked []*Genome, ev *Evaluator, round, gen, committed int) telemetry.GenerationStats {
	stats := telemetry.GenerationStats{
		Round:      round,
		Generation: gen,
		Committed:  committed,
	}
	values := make([]float64, 0, len(ranked))
	for _, g := range ranked {
		f := g.Fitness(ev)
		if f.Value != Lowest {
			values = append(values, f.Value)
		}
		if f.Died {
			stats.Dead++
		}
		if f.Finished {
			stats.Finished++
		}
	}
	stats.SetFitness(values)
	if len(ranked) > 0 {
		stats.BestReached = ranked[0].Fitness(ev).Reached
	}
	return stats
}
