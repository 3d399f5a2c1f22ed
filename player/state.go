package player

import (
	"fmt"
	"math"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
)

// Outcome is the result of one simulated frame.
type Outcome uint8

const (
	Nothing Outcome = iota
	Death
	CheckpointHit
)

func (o Outcome) String() string {
	switch o {
	case Nothing:
		return "nothing"
	case Death:
		return "death"
	case CheckpointHit:
		return "checkpoint"
	}
	return "invalid"
}

// State is the character between frames: an integer cell plus sub-pixel
// remainder, the current speed and the wall speed retention. States are
// values; Clone is a plain copy.
type State struct {
	X, Y      int32
	Remainder geom.Point
	Speed     geom.Point
	Retain    Retention

	phys *Physics
}

// New places a character at position. The position is split into the
// nearest cell and a remainder in [-0.5, 0.5].
func New(phys *Physics, position, speed geom.Point) *State {
	cx := roundEven(position.X)
	cy := roundEven(position.Y)
	return &State{
		X:         int32(cx),
		Y:         int32(cy),
		Remainder: geom.Pt(position.X-cx, position.Y-cy),
		Speed:     speed,
		phys:      phys,
	}
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := *s
	return &c
}

// Physics returns the constants the state is simulated with.
func (s *State) Physics() *Physics { return s.phys }

// Position returns the exact position, cell plus remainder.
func (s *State) Position() geom.Point {
	return geom.Pt(float32(s.X)+s.Remainder.X, float32(s.Y)+s.Remainder.Y)
}

// Hitbox returns the hitbox in world space. Collision uses whole pixels.
func (s *State) Hitbox() geom.Rect {
	return Hitbox.Translate(geom.Pt(float32(s.X), float32(s.Y)))
}

// Hurtbox returns the hurtbox in world space.
func (s *State) Hurtbox() geom.Rect {
	return Hurtbox.Translate(geom.Pt(float32(s.X), float32(s.Y)))
}

// Center returns the hurtbox centre at the exact position.
func (s *State) Center() geom.Point {
	return Hurtbox.Center().Add(s.Position())
}

func (s *State) String() string {
	return fmt.Sprintf("pos=(%d%+.3f, %d%+.3f) speed=%v", s.X, s.Remainder.X, s.Y, s.Remainder.Y, s.Speed)
}

// Step simulates one frame holding angle.
func (s *State) Step(angle Angle, t *movement.Table, checkpoint geom.Rect) (Outcome, Movement) {
	s.SpeedCalc(angle, t)
	heading := s.Speed
	m := s.MoveSelf(t)
	return s.CollideHeading(t, checkpoint, heading), m
}

func roundEven(v float32) float32 {
	return float32(math.RoundToEven(float64(v)))
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
