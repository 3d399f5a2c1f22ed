package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/telemetry"
)

// Status is how a run ended.
type Status uint8

const (
	// Success means the final checkpoint was hit.
	Success Status = iota
	// Aborted means the run stopped early: an infeasible frame or a
	// cancelled context. The inputs so far are kept.
	Aborted
	// Exhausted means the frame budget ran out.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Aborted:
		return "aborted"
	case Exhausted:
		return "exhausted"
	}
	return "invalid"
}

// Run is the result of a greedy run.
type Run struct {
	Status      Status
	Inputs      []player.Angle
	Checkpoints int // checkpoints hit
	Final       *player.State
	Err         error // cause of an Aborted run
}

// Frames returns the number of committed frames.
func (r Run) Frames() int { return len(r.Inputs) }

// Note describes a partial run for the script header; success has none.
func (r Run) Note() string {
	switch r.Status {
	case Success:
		return ""
	case Aborted:
		return fmt.Sprintf("aborted: %v", r.Err)
	}
	return r.Status.String()
}

// Runner commits the best single-frame input every frame until the last
// checkpoint is hit.
type Runner struct {
	Table       *movement.Table
	Checkpoints []geom.Rect
	MaxFrames   int

	Logger   *slog.Logger
	Perf     *telemetry.PerfCollector
	LogEvery int // log progress every N frames, 0 disables

	// OnFrame is called after every committed frame.
	OnFrame func(telemetry.FrameStats)
	// OnPerf is called whenever the perf window fills.
	OnPerf func(stats telemetry.PerfStats, frame int)
}

// Run plays from a copy of start. It never returns an empty Run: partial
// inputs survive an abort.
func (r *Runner) Run(ctx context.Context, start *player.State) Run {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st := start.Clone()
	run := Run{Status: Exhausted, Final: st}
	if len(r.Checkpoints) == 0 {
		run.Status = Success
		return run
	}

	next := 0
	for frame := 0; frame < r.MaxFrames; frame++ {
		if err := ctx.Err(); err != nil {
			run.Status, run.Err = Aborted, err
			break
		}

		r.Perf.StartTick()
		r.Perf.StartPhase(telemetry.PhaseScan)
		cp := r.Checkpoints[next]
		res, err := BestAngle(st, r.Table, cp)
		if err != nil {
			r.Perf.EndTick()
			logger.Warn("frame infeasible", "frame", frame, "checkpoint", next, "state", st.String())
			run.Status, run.Err = Aborted, fmt.Errorf("frame %d: %w", frame, err)
			break
		}

		r.Perf.StartPhase(telemetry.PhaseCommit)
		out, _ := st.Step(res.Angle, r.Table, cp)
		run.Inputs = append(run.Inputs, res.Angle)
		r.Perf.EndTick()

		if r.OnFrame != nil {
			r.OnFrame(telemetry.FrameStats{
				Frame:      frame,
				Angle:      res.Angle.String(),
				Score:      res.Score,
				Evaluated:  evaluated(res),
				X:          st.X,
				Y:          st.Y,
				SpeedX:     st.Speed.X,
				SpeedY:     st.Speed.Y,
				Checkpoint: next,
				Outcome:    out.String(),
			})
		}
		if r.Perf.WindowFull() && r.OnPerf != nil {
			r.OnPerf(r.Perf.Stats(), frame)
		}
		if r.LogEvery > 0 && frame%r.LogEvery == 0 {
			logger.Info("frame", "frame", frame, "angle", res.Angle.String(), "score", res.Score, "checkpoint", next)
		}

		if out == player.CheckpointHit {
			logger.Info("checkpoint hit", "index", next, "frame", frame)
			next++
			run.Checkpoints = next
			if next == len(r.Checkpoints) {
				run.Status = Success
				break
			}
		}
	}
	return run
}

func evaluated(res Result) int {
	n := 0
	for _, p := range res.Passes {
		n += p.Evaluated
	}
	return n
}
