package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/movement"
)

var precomputeCmd = &cobra.Command{
	Use:   "precompute <scenario>",
	Short: "Build and cache the movement table of a scenario",
	Long: `Build the per-cell movement table of a scenario and write it to the
table cache (precompute.cache_dir), so later searches start immediately.

Examples:
  maunakea precompute levels/lake.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPrecompute,
}

func runPrecompute(cmd *cobra.Command, args []string) error {
	if config.Cfg().Precompute.CacheDir == "" {
		return errors.New("precompute.cache_dir is empty; set it in the config to keep the table")
	}
	s, err := openSession(cmd.Context(), args[0], false)
	if err != nil {
		return err
	}
	s.perf.Stats().LogStats(s.logger)

	path := movement.CachePath(config.Cfg().Precompute.CacheDir, s.table.Key())
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("table cache was not written: %w", err)
	}
	return nil
}
