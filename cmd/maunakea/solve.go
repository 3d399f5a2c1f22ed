package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/maunakea/scan"
	"github.com/pthm-cable/maunakea/telemetry"
)

var solveCmd = &cobra.Command{
	Use:   "solve <scenario>",
	Short: "Search inputs one frame at a time",
	Long: `Commit, on every frame, the stick angle that brings the character
closest to the next checkpoint without dying. Prints the input script.

Examples:
  maunakea solve levels/lake.yaml
  maunakea solve levels/lake.yaml --output-dir out/solve --log-format text`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func runSolve(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), args[0], true)
	if err != nil {
		return err
	}
	defer s.close()

	r := &scan.Runner{
		Table:       s.table,
		Checkpoints: s.scenario.Checkpoints,
		MaxFrames:   s.cfg.Scan.MaxFrames,
		Logger:      s.logger,
		Perf:        s.perf,
		LogEvery:    s.cfg.Telemetry.LogEvery,
		OnFrame: func(f telemetry.FrameStats) {
			if err := s.output.WriteFrame(f); err != nil {
				s.logger.Warn("failed to write frame", "error", err)
			}
		},
		OnPerf: s.perfHook,
	}

	began := time.Now()
	run := r.Run(cmd.Context(), s.start)
	return s.finish("solve", run, 0, time.Since(began))
}
