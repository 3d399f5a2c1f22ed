// Package scan finds the best single-frame input by exhaustive search over
// the angle domain, and drives a greedy frame-by-frame run with it.
package scan

import (
	"errors"
	"math"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
)

// ErrInfeasibleFrame is returned when every scanned angle kills the
// character this frame.
var ErrInfeasibleFrame = errors.New("scan: no surviving input this frame")

// steps are the pass resolutions. The first pass covers the full turn;
// each later pass covers one previous step either side of the best angle.
var steps = [...]player.Angle{1000, 100, 10, 1}

// Pass reports one refinement pass.
type Pass struct {
	Step      player.Angle
	Angle     player.Angle // best angle after the pass
	Score     float64
	Evaluated int
}

// Result is the outcome of BestAngle.
type Result struct {
	Angle   player.Angle
	Score   float64
	Outcome player.Outcome // outcome of the frame held at Angle
	Passes  []Pass
}

// Score simulates one frame of holding angle on a copy of st. Death scores
// +Inf; otherwise the score is the distance from the hurtbox centre to the
// checkpoint centre.
func Score(st *player.State, angle player.Angle, t *movement.Table, checkpoint geom.Rect) (float64, player.Outcome) {
	c := st.Clone()
	out, _ := c.Step(angle, t, checkpoint)
	if out == player.Death {
		return math.Inf(1), out
	}
	return float64(c.Center().Distance(checkpoint.Center())), out
}

// BestAngle scans the angle domain in four passes of decreasing step and
// returns the angle with the lowest score. The best angle so far is kept
// across passes and only a strictly lower score replaces it, so among equal
// scores the first evaluated wins. st is not modified.
func BestAngle(st *player.State, t *movement.Table, checkpoint geom.Rect) (Result, error) {
	res := Result{Score: math.Inf(1)}

	consider := func(a player.Angle) {
		score, out := Score(st, a, t, checkpoint)
		if score < res.Score {
			res.Angle, res.Score, res.Outcome = a, score, out
		}
	}

	for i, step := range steps {
		var from, to player.Angle
		if i == 0 {
			from, to = 0, player.FullTurn
		} else {
			span := 10 * step
			from, to = res.Angle-span, res.Angle+span
		}

		n := 0
		for a := from; a < to; a += step {
			consider(a.Normalize())
			n++
		}
		res.Passes = append(res.Passes, Pass{Step: step, Angle: res.Angle, Score: res.Score, Evaluated: n})
		if math.IsInf(res.Score, 1) {
			// Nothing survived the full turn.
			break
		}
	}

	if math.IsInf(res.Score, 1) {
		return res, ErrInfeasibleFrame
	}
	return res, nil
}
