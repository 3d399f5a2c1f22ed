package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/maunakea/scan"
	"github.com/pthm-cable/maunakea/script"
	"github.com/pthm-cable/maunakea/telemetry"
)

var flagSnapshot string

var replayCmd = &cobra.Command{
	Use:   "replay <scenario> <script>",
	Short: "Re-simulate an input script",
	Long: `Play an input script from the scenario start and report how far it
gets. With --snapshot, the final state is compared to a snapshot written by
an earlier solve or evolve run.

Examples:
  maunakea replay levels/lake.yaml out/solve/inputs.txt
  maunakea replay levels/lake.yaml out/solve/inputs.txt --snapshot out/solve/snapshot_212.json`,
	Args: cobra.ExactArgs(2),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "Snapshot to verify the final state against")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	sc, err := script.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), args[0], false)
	if err != nil {
		return err
	}

	r := scan.ReplayInputs(s.start, s.table, s.scenario.Checkpoints, sc.Inputs)
	s.logger.Info("replay",
		"inputs", len(sc.Inputs),
		"frames", r.Frames,
		"checkpoints", r.Checkpoints,
		"died", r.Died,
		"finished", r.Finished,
		"unused", r.Unused,
		"final", r.Final.String(),
	)
	if sc.Note != "" {
		s.logger.Info("script note", "note", sc.Note)
	}

	fmt.Printf("frames:      %d\n", r.Frames)
	fmt.Printf("checkpoints: %d/%d\n", r.Checkpoints, len(s.scenario.Checkpoints))
	fmt.Printf("final:       %s\n", r.Final)

	if flagSnapshot != "" {
		snap, err := telemetry.LoadSnapshot(flagSnapshot)
		if err != nil {
			return err
		}
		if snap.Fingerprint != s.scenario.World.Fingerprint() {
			return fmt.Errorf("snapshot %s was taken in a different world", flagSnapshot)
		}
		if snap.Frame != r.Frames {
			return fmt.Errorf("snapshot at frame %d, replay stopped at frame %d", snap.Frame, r.Frames)
		}
		if diff := snap.Mismatch(r.Final); diff != "" {
			return fmt.Errorf("final state differs from snapshot: %s", diff)
		}
		fmt.Println("snapshot:    match")
	}

	switch {
	case r.Died:
		return fmt.Errorf("character died on frame %d", r.Frames-1)
	case !r.Finished:
		return fmt.Errorf("script ended before the last checkpoint (%d/%d)", r.Checkpoints, len(s.scenario.Checkpoints))
	}
	return nil
}
