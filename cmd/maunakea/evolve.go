package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/maunakea/evolve"
	"github.com/pthm-cable/maunakea/telemetry"
)

var evolveCmd = &cobra.Command{
	Use:   "evolve <scenario>",
	Short: "Search multi-frame inputs with a genetic algorithm",
	Long: `Evolve a population of input sequences against the checkpoints,
committing a prefix of the best sequence each round until the last
checkpoint is reached. Prints the input script.

Examples:
  maunakea evolve levels/lake.yaml --seed 7
  maunakea evolve levels/lake.yaml --output-dir out/evolve --db ~/.maunakea/runs.db`,
	Args: cobra.ExactArgs(1),
	RunE: runEvolve,
}

func runEvolve(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), args[0], true)
	if err != nil {
		return err
	}
	defer s.close()

	cfg := s.cfg
	e := evolve.NewEngine(cfg.Evolve, cfg.Derived.EvolveWorkers, s.table, s.scenario.Checkpoints)
	e.Logger = s.logger
	e.Perf = s.perf
	e.LogEvery = cfg.Telemetry.LogEvery
	e.OnGeneration = func(stats telemetry.GenerationStats) {
		if err := s.output.WriteGeneration(stats); err != nil {
			s.logger.Warn("failed to write generation", "error", err)
		}
	}
	e.OnBookmark = func(b telemetry.Bookmark) {
		if err := s.output.WriteBookmark(b); err != nil {
			s.logger.Warn("failed to write bookmark", "error", err)
		}
	}
	e.OnPerf = s.perfHook

	s.logger.Info("evolve starting",
		"seed", cfg.Evolve.Seed,
		"population", cfg.Evolve.Population,
		"workers", cfg.Derived.EvolveWorkers,
	)
	began := time.Now()
	res := e.Run(cmd.Context(), s.start)

	if err := s.output.WriteHallOfFame(res.Hall); err != nil {
		s.logger.Warn("failed to write hall of fame", "error", err)
	}
	s.logger.Info("evolve summary",
		"rounds", res.Rounds,
		"generations", res.Generations,
		"best_fitness", res.Best.Value,
		"best_reached", res.Best.Reached,
	)
	return s.finish("evolve", res.Run, res.Best.Value, time.Since(began))
}
