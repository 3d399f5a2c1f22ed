package player

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pthm-cable/maunakea/geom"
)

// StickMax is the largest magnitude of a stick axis.
const StickMax = 32767

// DefaultDeadzone is the radius of the circular stick deadzone.
const DefaultDeadzone = 0.25

// Stick is a raw analog stick reading. Y points up.
type Stick struct {
	X, Y int16
}

// StickToFloat converts one raw axis to [-1, 1].
func StickToFloat(s int16) float64 {
	return float64(s) / StickMax
}

// ApplyDeadzone removes a circular deadzone of radius dz and rescales the
// remaining range so the output magnitude runs from 0 to 1.
func ApplyDeadzone(x, y, dz float64) (float64, float64) {
	mag := math.Hypot(x, y)
	if mag <= dz {
		return 0, 0
	}
	post := min((mag-dz)/(1-dz), 1)
	scale := post / mag
	return x * scale, y * scale
}

// postMagnitude is the stick magnitude after the deadzone.
func postMagnitude(x, y, dz float64) float64 {
	mag := math.Hypot(x, y)
	if mag <= dz {
		return 0
	}
	return min((mag-dz)/(1-dz), 1)
}

// Vector returns the stick reading after the deadzone, Y up.
func (s Stick) Vector(dz float64) (x, y float64) {
	return ApplyDeadzone(StickToFloat(s.X), StickToFloat(s.Y), dz)
}

// Magnitude returns the magnitude after the deadzone.
func (s Stick) Magnitude(dz float64) float64 {
	return postMagnitude(StickToFloat(s.X), StickToFloat(s.Y), dz)
}

// Direction returns the unit movement direction in world space (Y down).
// A stick inside the deadzone has no direction and yields the zero vector.
func (s Stick) Direction(dz float64) geom.Point {
	x, y := s.Vector(dz)
	mag := math.Hypot(x, y)
	if mag == 0 {
		return geom.Point{}
	}
	return geom.Pt(float32(x/mag), float32(-y/mag))
}

// Angle returns the direction the stick points at.
func (s Stick) Angle() Angle {
	deg := math.Atan2(float64(s.X), float64(s.Y)) * 180 / math.Pi
	return FromDegrees(deg)
}

func (s Stick) String() string {
	return fmt.Sprintf("(%d, %d)", s.X, s.Y)
}

// PreciseFix returns the stick reading whose direction after the default
// deadzone best matches angle, with a post-deadzone magnitude in (0, bound].
// A bound below the smallest magnitude a reading can have outside the
// deadzone (about 1e-5) has no such reading; the result is then the zero
// stick, which has no direction.
func PreciseFix(angle Angle, bound float64) Stick {
	return preciseFix(angle, bound, DefaultDeadzone)
}

// preciseFix searches every 16-bit value of the minor axis. For each, the
// major axis value is derived from the target ratio, and the candidate with
// the strictly smallest angular error is kept, so the largest reading wins a
// tie. Cardinal angles use the largest feasible major value.
func preciseFix(angle Angle, bound, dz float64) Stick {
	angle = angle.Normalize()
	if angle%90000 == 0 {
		m := largestFeasible(bound, dz)
		switch angle {
		case 0:
			return Stick{0, m}
		case 90000:
			return Stick{m, 0}
		case 180000:
			return Stick{0, -m}
		default:
			return Stick{-m, 0}
		}
	}

	rad := angle.Radians()
	sx, sy := math.Sin(rad), math.Cos(rad)
	ax, ay := math.Abs(sx), math.Abs(sy)
	xMajor := ax >= ay
	major, minor := ay, ax
	if xMajor {
		major, minor = ax, ay
	}
	ratio := minor / major

	bestMinor, bestMajor := int32(0), int32(0)
	bestErr := math.Inf(1)
	for m := int32(StickMax); m >= 1; m-- {
		fm := float64(m)
		M := int32(StickMax)
		if ideal := fm / ratio; ideal < StickMax {
			M = int32(math.Round(ideal))
		}
		post := postMagnitude(fm/StickMax, float64(M)/StickMax, dz)
		if post <= 0 || post > bound {
			continue
		}
		// tan of the angular error; monotone in the error itself.
		t := fm / float64(M)
		err := math.Abs(t-ratio) / (1 + t*ratio)
		if err < bestErr {
			bestErr, bestMinor, bestMajor = err, m, M
		}
	}
	if math.IsInf(bestErr, 1) {
		// Nothing off-axis is feasible: fall back to the nearest cardinal.
		return preciseFix(nearestCardinal(angle), bound, dz)
	}

	x, y := bestMinor, bestMajor
	if xMajor {
		x, y = bestMajor, bestMinor
	}
	if sx < 0 {
		x = -x
	}
	if sy < 0 {
		y = -y
	}
	return Stick{int16(x), int16(y)}
}

// largestFeasible returns the largest single-axis reading whose
// post-deadzone magnitude stays within bound, or 0 when none is positive.
func largestFeasible(bound, dz float64) int16 {
	for m := StickMax; m >= 1; m-- {
		post := postMagnitude(float64(m)/StickMax, 0, dz)
		if post <= 0 {
			return 0
		}
		if post <= bound {
			return int16(m)
		}
	}
	return 0
}

func nearestCardinal(a Angle) Angle {
	return (((a + 45000) / 90000) * 90000).Normalize()
}

// stickCache memoises quantised full-magnitude readings per angle. Racing
// writers store the same value.
type stickCache struct {
	entries []atomic.Uint64
	dz      float64
}

func newStickCache(dz float64) *stickCache {
	return &stickCache{entries: make([]atomic.Uint64, FullTurn), dz: dz}
}

const stickCached = 1 << 32

func (c *stickCache) get(a Angle) Stick {
	e := &c.entries[a.Normalize()]
	if v := e.Load(); v&stickCached != 0 {
		return Stick{X: int16(uint16(v >> 16)), Y: int16(uint16(v))}
	}
	s := preciseFix(a, 1, c.dz)
	e.Store(stickCached | uint64(uint16(s.X))<<16 | uint64(uint16(s.Y)))
	return s
}
