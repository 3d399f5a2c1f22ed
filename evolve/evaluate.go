package evolve

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
)

// Lowest is the fitness of a genome whose score is not a finite number.
const Lowest = -math.MaxFloat64

// Scoring weighs the terms of the fitness function.
type Scoring struct {
	CheckpointReward float64 // per checkpoint reached
	FramePenalty     float64 // per frame up to the last checkpoint hit
	DeathPenalty     float64
	// PreciseFinal times the final checkpoint hit to a fraction of a frame
	// using a swept hitbox, so a genome that barely clips the checkpoint
	// beats one that overshoots it.
	PreciseFinal bool
}

// ScoringFromConfig reads the scoring terms of the evolve section.
func ScoringFromConfig(c config.EvolveConfig) Scoring {
	return Scoring{
		CheckpointReward: c.CheckpointReward,
		FramePenalty:     c.FramePenalty,
		DeathPenalty:     c.DeathPenalty,
		PreciseFinal:     c.PreciseFinal,
	}
}

// Fitness is the evaluated outcome of a genome.
type Fitness struct {
	Value    float64
	Reached  int     // index of the next checkpoint after replay
	LastHit  int     // frames played when the last checkpoint was hit, 0 if none
	HitTime  float64 // LastHit with the sub-frame refinement applied
	Residual float64 // distance to the next checkpoint centre at the end
	Died     bool
	Frames   int // frames played; a genome stops at death or the final checkpoint
	Finished bool
}

// Evaluator replays genomes from a fixed state. It is safe for concurrent
// use.
type Evaluator struct {
	Table       *movement.Table
	Checkpoints []geom.Rect
	Start       *player.State
	Next        int // checkpoint the start state is heading for
	Scoring     Scoring
	Logger      *slog.Logger

	evaluations atomic.Int64
}

// Evaluations returns how many genomes have been replayed.
func (ev *Evaluator) Evaluations() int64 {
	return ev.evaluations.Load()
}

// Evaluate replays genes from a copy of Start.
func (ev *Evaluator) Evaluate(genes []player.Angle) Fitness {
	ev.evaluations.Add(1)

	st := ev.Start.Clone()
	f := Fitness{Reached: ev.Next}
	last := len(ev.Checkpoints) - 1

	for i, a := range genes {
		if f.Reached > last {
			break
		}
		cp := ev.Checkpoints[f.Reached]
		pre := st.Position()

		out, _ := st.Step(a, ev.Table, cp)
		f.Frames = i + 1

		if out == player.Death {
			f.Died = true
			break
		}
		if out != player.CheckpointHit {
			continue
		}

		f.LastHit = f.Frames
		f.HitTime = float64(f.Frames)
		if f.Reached == last {
			f.Finished = true
			if ev.Scoring.PreciseFinal {
				f.HitTime = float64(f.Frames-1) + float64(sweepFraction(pre, st.Position(), cp))
			}
		}
		f.Reached++
	}

	if f.Reached <= last {
		f.Residual = float64(st.Center().Distance(ev.Checkpoints[f.Reached].Center()))
	}

	s := ev.Scoring
	v := float64(f.Reached)*s.CheckpointReward - f.HitTime*s.FramePenalty - f.Residual
	if f.Died {
		v -= s.DeathPenalty
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if ev.Logger != nil {
			ev.Logger.Debug("non-finite fitness", "reached", f.Reached, "hit_time", f.HitTime, "residual", f.Residual)
		}
		v = Lowest
	}
	f.Value = v
	return f
}

// sweepFraction returns the fraction of the move from pre to post at which
// the hitbox first touches checkpoint. A sweep that never touches it, or a
// degenerate one, counts as the whole frame.
func sweepFraction(pre, post geom.Point, checkpoint geom.Rect) float32 {
	box := player.Hitbox.Translate(pre)
	t, hit := geom.SweepRect(box, post.Sub(pre), checkpoint)
	if !hit || math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		return 1
	}
	return t
}
