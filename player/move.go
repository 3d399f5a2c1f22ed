package player

import (
	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
)

// SpeedCalc updates the speed for one frame of holding angle: retention is
// resolved first, then each axis approaches the target by at most Accel and
// is clamped to the speed limits.
//
// An armed retention is only resolved while the target pushes towards the
// retained side. If the wall there still blocks, the retained speed is
// restored so that holding into the wall does not bleed speed every frame.
// A target pointing away clears it; a neutral horizontal target lets it
// count down.
func (s *State) SpeedCalc(angle Angle, t *movement.Table) {
	p := s.phys
	target := p.Target(angle)

	if s.Retain.Armed() {
		v := s.Retain.Value()
		switch sign(target.X) {
		case 0:
			s.Retain.Tick()
		case sign(v):
			dir, _ := geom.DirectionFor(geom.Horizontal, v)
			if t.Distance(s.X, s.Y, dir) == 0 {
				s.Speed.X = v
			}
			s.Retain.Clear()
		default:
			s.Retain.Clear()
		}
	}

	s.Speed.X = clamp(approach(s.Speed.X, target.X, p.Accel), p.MaxX)
	s.Speed.Y = clamp(approach(s.Speed.Y, target.Y, p.Accel), p.MaxY)
}

// Movement reports what MoveSelf did on each axis (0 = X, 1 = Y).
type Movement struct {
	Requested [2]int32
	Moved     [2]int32
	Blocked   [2]bool
}

// MoveSelf advances the position by one frame of speed, X first. A move
// longer than the free distance stops at the obstacle, zeroes that axis of
// speed and remainder and, for X, arms speed retention.
func (s *State) MoveSelf(t *movement.Table) Movement {
	var m Movement
	preX := s.Speed.X
	fr := s.phys.FrameRate

	for axis := range 2 {
		var speed, rem *float32
		var pos *int32
		if axis == 0 {
			speed, rem, pos = &s.Speed.X, &s.Remainder.X, &s.X
		} else {
			speed, rem, pos = &s.Speed.Y, &s.Remainder.Y, &s.Y
		}

		*rem += *speed / fr
		move := roundEven(*rem)
		*rem -= move
		amount := int32(move)
		m.Requested[axis] = amount
		if amount == 0 {
			continue
		}

		dir, _ := geom.DirectionFor(geom.Axis(axis), move)
		avail := int32(t.Distance(s.X, s.Y, dir))
		if abs32(amount) <= avail {
			*pos += amount
			m.Moved[axis] = amount
			continue
		}

		moved := avail * dir.Sign()
		*pos += moved
		m.Moved[axis] = moved
		m.Blocked[axis] = true
		*speed = 0
		*rem = 0
		if axis == 0 {
			s.Retain.Arm(preX, s.phys.RetentionFrames)
		}
	}
	return m
}

// Collide checks the cell the character ended in, heading the way its
// current speed points. See CollideHeading.
func (s *State) Collide(t *movement.Table, checkpoint geom.Rect) Outcome {
	return s.CollideHeading(t, checkpoint, s.Speed)
}

// CollideHeading checks the cell the character ended in. Death takes
// priority: the lethal flags are tested in every direction heading points
// in, or in all four when heading is zero. Otherwise touching the
// checkpoint with the hitbox is a hit.
//
// Step passes the speed from before the move, so an axis zeroed by a wall
// still counts as the direction of travel.
func (s *State) CollideHeading(t *movement.Table, checkpoint geom.Rect, heading geom.Point) Outcome {
	if mask := t.LethalMask(s.X, s.Y); mask != 0 {
		if heading == (geom.Point{}) {
			return Death
		}
		for _, axis := range []geom.Axis{geom.Horizontal, geom.Vertical} {
			v := heading.X
			if axis == geom.Vertical {
				v = heading.Y
			}
			if dir, ok := geom.DirectionFor(axis, v); ok && mask.Has(dir) {
				return Death
			}
		}
	}
	if geom.Overlaps(s.Hitbox(), checkpoint) {
		return CheckpointHit
	}
	return Nothing
}

func approach(v, target, step float32) float32 {
	d := target - v
	if d > -step && d < step {
		return target
	}
	if d > 0 {
		return v + step
	}
	return v - step
}

func clamp(v, limit float32) float32 {
	return max(-limit, min(v, limit))
}

func sign(v float32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
