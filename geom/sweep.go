package geom

import "math"

// SweepRect moves r by delta and returns the fraction t in [0, 1] of the
// motion at which r first overlaps target. hit is false when the two never
// overlap during the sweep. A rectangle already overlapping target at the
// start reports t = 0.
//
// Per axis the entry/exit fractions follow the slab method; an axis with no
// motion either overlaps for the whole sweep or excludes a hit entirely.
func SweepRect(r Rect, delta Point, target Rect) (t float32, hit bool) {
	if rectRect(r, target) {
		return 0, true
	}

	entryX, exitX, okX := slab(r.UL.X, r.DR.X, target.UL.X, target.DR.X, delta.X)
	if !okX {
		return 0, false
	}
	entryY, exitY, okY := slab(r.UL.Y, r.DR.Y, target.UL.Y, target.DR.Y, delta.Y)
	if !okY {
		return 0, false
	}

	entry := math.Max(entryX, entryY)
	exit := math.Min(exitX, exitY)
	if entry >= exit || entry < 0 || entry > 1 {
		return 0, false
	}
	return float32(entry), true
}

// slab returns the open interval of sweep fractions during which [lo, hi)
// moved by d overlaps (tlo, thi).
func slab(lo, hi, tlo, thi, d float32) (entry, exit float64, ok bool) {
	if d == 0 {
		if lo < thi && tlo < hi {
			return math.Inf(-1), math.Inf(1), true
		}
		return 0, 0, false
	}
	a := float64(tlo-hi) / float64(d)
	b := float64(thi-lo) / float64(d)
	if a > b {
		a, b = b, a
	}
	return a, b, true
}
