// Package player simulates the swimming character one frame at a time
// against a precomputed movement table.
package player

import (
	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/geom"
)

// Character boxes relative to the logical position.
var (
	Hitbox  = geom.NewRectXYWH(-4, -10, 8, 8)
	Hurtbox = geom.NewRectXYWH(-3, -9, 6, 6)
)

// Physics holds the movement constants. It is shared read-only by every
// state simulated with it.
type Physics struct {
	Accel           float32
	MaxX, MaxY      float32
	TargetX         float32
	TargetY         float32
	FrameRate       float32
	RetentionFrames int
	Deadzone        float64

	sticks *stickCache
}

// NewPhysics builds physics from the physics config section.
func NewPhysics(c config.PhysicsConfig) *Physics {
	return &Physics{
		Accel:           float32(c.Accel),
		MaxX:            float32(c.MaxX),
		MaxY:            float32(c.MaxY),
		TargetX:         float32(c.TargetX),
		TargetY:         float32(c.TargetY),
		FrameRate:       float32(c.FrameRate),
		RetentionFrames: c.RetentionFrames,
		Deadzone:        c.Deadzone,
		sticks:          newStickCache(c.Deadzone),
	}
}

// DefaultPhysics returns the physics of the embedded default config.
func DefaultPhysics() *Physics {
	return NewPhysics(config.Default().Physics)
}

// Stick returns the full-magnitude stick reading used for angle.
func (p *Physics) Stick(a Angle) Stick {
	return p.sticks.get(a)
}

// Target returns the speed the character accelerates towards when holding
// angle: the point of the target ellipse in the quantised stick direction.
func (p *Physics) Target(a Angle) geom.Point {
	dir := p.Stick(a).Direction(p.Deadzone)
	if dir == (geom.Point{}) {
		return dir
	}
	ax, ay := p.TargetX, p.TargetY
	bx, by := ay*dir.X, ax*dir.Y
	rad := ax * ay / sqrt32(bx*bx+by*by)
	return dir.Scale(rad)
}
