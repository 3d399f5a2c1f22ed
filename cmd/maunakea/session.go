package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/scan"
	"github.com/pthm-cable/maunakea/script"
	"github.com/pthm-cable/maunakea/storage"
	"github.com/pthm-cable/maunakea/telemetry"
	"github.com/pthm-cable/maunakea/world"
)

// session is a loaded scenario with its movement table.
type session struct {
	cfg      *config.Config
	name     string
	scenario *world.Scenario
	table    *movement.Table
	start    *player.State
	perf     *telemetry.PerfCollector
	output   *telemetry.OutputManager
	logger   *slog.Logger
}

// openSession loads the scenario at path and builds or loads its movement
// table. The output manager is opened only when withOutput is set.
func openSession(ctx context.Context, path string, withOutput bool) (*session, error) {
	cfg := config.Cfg()
	logger := slog.Default()

	sc, err := world.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	name := sc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	s := &session{
		cfg:      cfg,
		name:     name,
		scenario: sc,
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		logger:   logger.With("scenario", name),
	}

	s.perf.StartTick()
	s.perf.StartPhase(telemetry.PhasePrecompute)
	began := time.Now()
	s.table, err = movement.LoadOrBuild(ctx, cfg.Precompute.CacheDir, &sc.World, player.Hitbox, player.Hurtbox, movement.Options{
		Cap:      uint8(cfg.Precompute.Cap),
		Workers:  cfg.Derived.PrecomputeWorkers,
		CellSize: float32(cfg.Precompute.GridCellSize),
	}, s.logger)
	s.perf.EndTick()
	if err != nil {
		return nil, fmt.Errorf("movement table: %w", err)
	}
	s.logger.Info("table ready",
		"elapsed_ms", time.Since(began).Milliseconds(),
		"width", s.table.Width(),
		"height", s.table.Height(),
		"stats", s.table.Stats(),
	)

	s.start = player.New(player.NewPhysics(cfg.Physics), sc.Start.Position, sc.Start.Speed)

	if withOutput {
		if s.output, err = telemetry.NewOutputManager(cfg.Output.Dir); err != nil {
			return nil, err
		}
		if err := s.output.WriteConfig(cfg); err != nil {
			s.logger.Warn("failed to write config snapshot", "error", err)
		}
	}
	return s, nil
}

// close flushes the output files.
func (s *session) close() {
	if err := s.output.Close(); err != nil {
		s.logger.Warn("failed to close output", "error", err)
	}
}

// finish reports a search result: the script on stdout, output files and
// the run history record. A run that did not succeed is returned as an
// error after everything is written.
func (s *session) finish(mode string, run scan.Run, fitness float64, elapsed time.Duration) error {
	label := s.cfg.Output.FrameLabel
	note := run.Note()

	if err := writeScript(os.Stdout, label, run); err != nil {
		s.logger.Error("failed to print inputs", "error", err)
	}

	if err := s.output.WriteInputs(label, run.Inputs, note); err != nil {
		s.logger.Error("failed to write inputs", "error", err)
	}
	snap := telemetry.CaptureSnapshot(run.Final, s.scenario.World.Fingerprint(), run.Frames(), run.Status.String())
	if path, err := s.output.WriteSnapshot(snap); err != nil {
		s.logger.Error("failed to write snapshot", "error", err)
	} else if path != "" {
		s.logger.Info("snapshot saved", "path", path)
	}

	if s.cfg.Storage.DBPath != "" {
		s.record(storage.Run{
			Scenario:    s.name,
			Mode:        mode,
			Status:      run.Status.String(),
			Frames:      run.Frames(),
			Checkpoints: run.Checkpoints,
			Seed:        s.cfg.Evolve.Seed,
			Fitness:     fitness,
			Note:        note,
			Script:      script.Format(label, run.Inputs),
			Duration:    elapsed,
		})
	}

	s.logger.Info("run finished",
		"mode", mode,
		"status", run.Status.String(),
		"frames", run.Frames(),
		"checkpoints", run.Checkpoints,
		"elapsed", elapsed.Round(time.Millisecond).String(),
	)
	if run.Status != scan.Success {
		return fmt.Errorf("%s %s after %d frames: %s", mode, s.name, run.Frames(), note)
	}
	return nil
}

// writeScript writes the run's inputs the way inputs.txt holds them: a
// partial run is marked by a leading comment.
func writeScript(w io.Writer, label string, run scan.Run) error {
	return script.EncodePartial(w, label, run.Inputs, run.Note())
}

func (s *session) record(r storage.Run) {
	store, err := storage.Open(s.cfg.Storage.DBPath)
	if err != nil {
		s.logger.Warn("could not open run database", "error", err)
		return
	}
	defer store.Close()

	id, err := store.SaveRun(r)
	if err != nil {
		s.logger.Warn("could not record run", "error", err)
		return
	}
	s.logger.Info("run recorded", "id", id, "db", s.cfg.Storage.DBPath)
}

// perfHook logs and writes a filled perf window.
func (s *session) perfHook(stats telemetry.PerfStats, tick int) {
	stats.LogStats(s.logger)
	if err := s.output.WritePerf(stats, tick); err != nil {
		s.logger.Warn("failed to write perf", "error", err)
	}
}
