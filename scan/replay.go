package scan

import (
	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/player"
)

// Replay is the result of re-simulating a fixed input sequence.
type Replay struct {
	Frames      int // frames played before stopping
	Checkpoints int // checkpoints hit
	Died        bool
	Finished    bool // the last checkpoint was hit
	Unused      int  // inputs left over after death or the last checkpoint
	Final       *player.State
}

// ReplayInputs plays inputs from a copy of start. It stops at death or when
// the last checkpoint is hit.
func ReplayInputs(start *player.State, t *movement.Table, checkpoints []geom.Rect, inputs []player.Angle) Replay {
	st := start.Clone()
	r := Replay{Final: st, Finished: len(checkpoints) == 0}
	for i, a := range inputs {
		if r.Finished {
			r.Unused = len(inputs) - i
			break
		}
		out, _ := st.Step(a, t, checkpoints[r.Checkpoints])
		r.Frames++
		switch out {
		case player.Death:
			r.Died = true
			r.Unused = len(inputs) - i - 1
			return r
		case player.CheckpointHit:
			r.Checkpoints++
			r.Finished = r.Checkpoints == len(checkpoints)
		}
	}
	return r
}
