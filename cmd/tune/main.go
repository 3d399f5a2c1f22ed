// Package main tunes evolve search parameters with CMA-ES so a scenario is
// solved in as few frames as possible.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/world"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// tuneRecord is one row of tune_log.csv.
type tuneRecord struct {
	Eval              int     `csv:"eval"`
	Fitness           float64 `csv:"fitness"`
	Success           float64 `csv:"success_rate"`
	MutationRate      float64 `csv:"mutation_rate"`
	MaxDelta          float64 `csv:"max_delta"`
	ResetRate         float64 `csv:"reset_rate"`
	SelectionPressure float64 `csv:"selection_pressure"`
	CrossoverRate     float64 `csv:"crossover_rate"`
	CommitFrames      float64 `csv:"commit_frames"`
}

func newTuneRecord(eval int, fitness, success float64, v []float64) tuneRecord {
	return tuneRecord{
		Eval:              eval,
		Fitness:           fitness,
		Success:           success,
		MutationRate:      v[0],
		MaxDelta:          v[1],
		ResetRate:         v[2],
		SelectionPressure: v[3],
		CrossoverRate:     v[4],
		CommitFrames:      v[5],
	}
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	scenarioPath := flag.String("scenario", "", "Scenario YAML file to tune on")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "tune"})

	if *outputDir == "" || *scenarioPath == "" {
		logger.Fatal("--output and --scenario are required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatal("failed to create output directory", "err", err)
	}

	if err := config.Init(*configPath); err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	baseCfg := config.Cfg()

	sc, err := world.LoadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal("failed to load scenario", "err", err)
	}
	table, err := movement.LoadOrBuild(context.Background(), baseCfg.Precompute.CacheDir, &sc.World, player.Hitbox, player.Hurtbox, movement.Options{
		Cap:      uint8(baseCfg.Precompute.Cap),
		Workers:  baseCfg.Derived.PrecomputeWorkers,
		CellSize: float32(baseCfg.Precompute.GridCellSize),
	}, nil)
	if err != nil {
		logger.Fatal("failed to build movement table", "err", err)
	}
	start := player.New(player.NewPhysics(baseCfg.Physics), sc.Start.Position, sc.Start.Speed)

	params := NewParamVector(baseCfg.Evolve)

	evalSeeds := make([]uint64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg.Evolve, sc, table, start)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds run in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		logger.Fatal("failed to create log file", "err", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		// Log clamped values, the ones actually used
		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		success := evaluator.LastSuccess()
		rec := []tuneRecord{newTuneRecord(evalCount, fitness, success, clamped)}
		if evalCount == 1 {
			err = gocsv.Marshal(rec, logFile)
		} else {
			err = gocsv.MarshalWithoutHeaders(rec, logFile)
		}
		if err != nil {
			logger.Warn("failed to write tune log", "err", err)
		}

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
		logger.Info("eval",
			"n", fmt.Sprintf("%d/%d", evalCount, *maxEvals),
			"frames", fmt.Sprintf("%.2f", fitness),
			"success", fmt.Sprintf("%.0f%%", success*100),
			"best", fmt.Sprintf("%.2f", bestFitness),
			"elapsed", formatDuration(elapsed),
			"eta", formatDuration(remaining),
		)
		return fitness
	}

	logger.Info("starting CMA-ES", "params", dim, "population", popSize, "max_evals", *maxEvals, "seeds", *seeds)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Warn("optimization ended", "err", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.3f frames\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to reload config", "err", err)
	}
	params.ApplyToConfig(&bestCfg.Evolve, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		logger.Error("failed to write best config", "err", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	if hof := evaluator.BestHallOfFame(); hof != nil {
		hofPath := filepath.Join(*outputDir, "hall_of_fame.json")
		data, err := hof.MarshalJSON()
		if err != nil {
			logger.Error("failed to marshal hall of fame", "err", err)
		} else if err := os.WriteFile(hofPath, data, 0644); err != nil {
			logger.Error("failed to write hall of fame", "err", err)
		} else {
			fmt.Printf("Hall of fame saved to: %s\n", hofPath)
		}
	}
}
