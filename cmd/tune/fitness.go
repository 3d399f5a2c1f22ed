package main

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/evolve"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/scan"
	"github.com/pthm-cable/maunakea/world"
)

// FitnessEvaluator runs evolve searches and scores parameter vectors.
type FitnessEvaluator struct {
	params   *ParamVector
	seeds    []uint64
	base     config.EvolveConfig
	scenario *world.Scenario
	table    *movement.Table
	start    *player.State

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestHall    *evolve.HallOfFame
	lastSuccess float64 // success rate of the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []uint64, base config.EvolveConfig, sc *world.Scenario, table *movement.Table, start *player.State) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		base:        base,
		scenario:    sc,
		table:       table,
		start:       start,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *evolve.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHall
}

// LastSuccess returns the fraction of seeds that reached the last
// checkpoint in the most recent evaluation.
func (fe *FitnessEvaluator) LastSuccess() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSuccess
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	success bool
	hall    *evolve.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better): the
// mean over seeds of the frames a run needed.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.base
	fe.params.ApplyToConfig(&cfg, x)

	workers := max(runtime.GOMAXPROCS(0)/len(fe.seeds), 1)

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			c := cfg
			c.Seed = s
			e := evolve.NewEngine(c, workers, fe.table, fe.scenario.Checkpoints)
			e.Logger = slog.New(slog.DiscardHandler)
			res := e.Run(context.Background(), fe.start)
			results[idx] = seedResult{
				fitness: fe.computeFitness(c, res),
				success: res.Status == scan.Success,
				hall:    res.Hall,
			}
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var successes int
	best := math.Inf(1)
	var bestHall *evolve.HallOfFame
	for _, r := range results {
		total += r.fitness
		if r.success {
			successes++
		}
		if r.fitness < best {
			best = r.fitness
			bestHall = r.hall
		}
	}

	n := float64(len(fe.seeds))
	avg := total / n

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestHall = bestHall
	}
	fe.lastSuccess = float64(successes) / n
	fe.mu.Unlock()

	return avg
}

// computeFitness scores one run. A successful run scores its frame count
// with the sub-frame timing of the final hit; a failed run scores the frame
// budget once more for every checkpoint it missed.
func (fe *FitnessEvaluator) computeFitness(cfg config.EvolveConfig, res evolve.Result) float64 {
	if res.Status == scan.Success {
		if res.Best.Finished {
			return float64(res.Frames()-res.Best.Frames) + res.Best.HitTime
		}
		return float64(res.Frames())
	}
	missed := len(fe.scenario.Checkpoints) - res.Checkpoints
	return float64(cfg.MaxFrames) * float64(1+missed)
}
