// maunakea finds frame-perfect swim inputs for a platformer character.
//
// Usage:
//
//	maunakea precompute <scenario>        - Build and cache the movement table
//	maunakea solve <scenario>             - Greedy single-frame search
//	maunakea evolve <scenario>            - Multi-frame evolutionary search
//	maunakea replay <scenario> <script>   - Re-simulate an input script
//	maunakea runs                         - List stored runs
//
// Global flags:
//
//	--config <path>      - YAML config overriding the embedded defaults
//	--output-dir <dir>   - Write CSV logs, inputs.txt and snapshots here
//	--db <path>          - Record runs in this SQLite database
//	--log-format <fmt>   - json (default) or text
//	--seed <value>       - Evolve RNG seed (0 = keep config)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/maunakea/config"
)

var (
	// Global flags
	flagConfig    string
	flagOutputDir string
	flagDBPath    string
	flagLogFormat string
	flagSeed      uint64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maunakea",
	Short: "Search frame-perfect swim inputs",
	Long: `maunakea simulates a swimming platformer character on an integer pixel
grid and searches the analog stick angle to press on every frame so the
character passes through a sequence of checkpoints as fast as possible.

Examples:
  maunakea precompute levels/lake.yaml
  maunakea solve levels/lake.yaml --output-dir out/solve
  maunakea evolve levels/lake.yaml --seed 7 --db ~/.maunakea/runs.db
  maunakea replay levels/lake.yaml out/solve/inputs.txt
  maunakea runs --scenario lake`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "Output directory for CSV logs, inputs and snapshots")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run history database (empty = config storage.db_path)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Evolve RNG seed (0 = use config)")

	rootCmd.AddCommand(precomputeCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(evolveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(runsCmd)
}

// setup loads the config, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Init(flagConfig); err != nil {
		return err
	}
	cfg := config.Cfg()
	if flagOutputDir != "" {
		cfg.Output.Dir = flagOutputDir
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagSeed != 0 {
		cfg.Evolve.Seed = flagSeed
	}

	logger, err := newLogger(flagLogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// newLogger returns a JSON logger or a human-readable one. Logs go to
// stderr; stdout carries the input script.
func newLogger(format string) (*slog.Logger, error) {
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, nil)), nil
	case "text":
		handler := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
		return slog.New(handler), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want json or text)", format)
}
