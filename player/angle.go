package player

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Angle is an input direction in millidegrees, clockwise from straight up.
type Angle int32

// FullTurn is one revolution.
const FullTurn Angle = 360000

// FromDegrees converts degrees to the nearest millidegree angle.
func FromDegrees(deg float64) Angle {
	return Angle(math.Round(deg * 1000)).Normalize()
}

// Normalize wraps a into [0, FullTurn).
func (a Angle) Normalize() Angle {
	a %= FullTurn
	if a < 0 {
		a += FullTurn
	}
	return a
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) / 1000
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return a.Degrees() * math.Pi / 180
}

// String renders the angle in degrees with up to three fractional digits,
// keeping at least one: 4200 is "4.2", 4002 is "4.002", 90000 is "90.0".
func (a Angle) String() string {
	neg := a < 0
	if neg {
		a = -a
	}
	frac := strings.TrimRight(fmt.Sprintf("%03d", a%1000), "0")
	if frac == "" {
		frac = "0"
	}
	s := strconv.Itoa(int(a/1000)) + "." + frac
	if neg {
		return "-" + s
	}
	return s
}

// ParseAngle reads an angle written by String. Up to three fractional
// digits are accepted.
func ParseAngle(s string) (Angle, error) {
	in := s
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 3 {
		return 0, fmt.Errorf("invalid angle %q", in)
	}
	w, err := strconv.ParseUint(whole, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid angle %q: %w", in, err)
	}
	var f uint64
	if frac != "" {
		if f, err = strconv.ParseUint(frac, 10, 16); err != nil {
			return 0, fmt.Errorf("invalid angle %q: %w", in, err)
		}
		for range 3 - len(frac) {
			f *= 10
		}
	}
	v := int64(w)*1000 + int64(f)
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("invalid angle %q: out of range", in)
	}
	if neg {
		v = -v
	}
	return Angle(v), nil
}
