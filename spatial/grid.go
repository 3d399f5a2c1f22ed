// Package spatial provides the static obstacle index used to answer box
// queries against blocking and lethal geometry.
package spatial

import (
	"math"
	"slices"

	"github.com/pthm-cable/maunakea/geom"
)

// DefaultCellSize is the bucket edge length used when none is given. Level
// geometry comes in 8px tiles, so two tiles per bucket keeps lists short.
const DefaultCellSize = 16

// Index is a bulk-loaded uniform bucket grid over an immutable shape list.
// Each shape id is stored in every bucket its bounding box touches. The
// index is never mutated after Build, so any number of goroutines may query
// it concurrently.
type Index struct {
	shapes   []geom.Shape
	bounds   []geom.Rect // cached shape AABBs, same order as shapes
	cellSize float32
	originX  float32
	originY  float32
	cols     int
	rows     int
	cells    [][]int32 // flat grid of shape id lists
}

// Build bulk-loads an index over shapes. The slice is retained and must not
// be modified afterwards. cellSize <= 0 selects DefaultCellSize.
func Build(shapes []geom.Shape, cellSize float32) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	idx := &Index{shapes: shapes, cellSize: cellSize}
	if len(shapes) == 0 {
		return idx
	}

	idx.bounds = make([]geom.Rect, len(shapes))
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for i, s := range shapes {
		b := s.Bounds()
		idx.bounds[i] = b
		minX = min(minX, b.UL.X)
		minY = min(minY, b.UL.Y)
		maxX = max(maxX, b.DR.X)
		maxY = max(maxY, b.DR.Y)
	}

	idx.originX = float32(math.Floor(float64(minX)))
	idx.originY = float32(math.Floor(float64(minY)))
	idx.cols = int((maxX-idx.originX)/cellSize) + 1
	idx.rows = int((maxY-idx.originY)/cellSize) + 1

	// Count first so every bucket is allocated exactly once.
	counts := make([]int, idx.cols*idx.rows)
	for _, b := range idx.bounds {
		c0, r0, c1, r1, ok := idx.cellRange(b)
		if !ok {
			continue
		}
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				counts[r*idx.cols+c]++
			}
		}
	}
	idx.cells = make([][]int32, len(counts))
	for i, n := range counts {
		if n > 0 {
			idx.cells[i] = make([]int32, 0, n)
		}
	}
	for id, b := range idx.bounds {
		c0, r0, c1, r1, ok := idx.cellRange(b)
		if !ok {
			continue
		}
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				cell := r*idx.cols + c
				idx.cells[cell] = append(idx.cells[cell], int32(id))
			}
		}
	}

	return idx
}

// Len returns the number of indexed shapes.
func (idx *Index) Len() int {
	return len(idx.shapes)
}

// Shape returns the shape with the given id.
func (idx *Index) Shape(id int) geom.Shape {
	return idx.shapes[id]
}

// CandidatesInto appends the ids of all shapes sharing a bucket with box to
// dst, sorted and without duplicates. Reuse dst across calls to avoid
// allocations.
func (idx *Index) CandidatesInto(dst []int, box geom.Rect) []int {
	c0, r0, c1, r1, ok := idx.cellRange(box)
	if !ok {
		return dst
	}
	start := len(dst)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, id := range idx.cells[r*idx.cols+c] {
				dst = append(dst, int(id))
			}
		}
	}
	found := dst[start:]
	slices.Sort(found)
	found = slices.Compact(found)
	return dst[:start+len(found)]
}

// IntersectingInto appends the ids of shapes that overlap box to dst.
func (idx *Index) IntersectingInto(dst []int, box geom.Rect) []int {
	start := len(dst)
	dst = idx.CandidatesInto(dst, box)
	out := dst[:start]
	for _, id := range dst[start:] {
		if geom.Overlaps(idx.shapes[id], box) {
			out = append(out, id)
		}
	}
	return out
}

// AnyIntersecting reports whether any shape overlaps box.
func (idx *Index) AnyIntersecting(box geom.Rect) bool {
	c0, r0, c1, r1, ok := idx.cellRange(box)
	if !ok {
		return false
	}
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, id := range idx.cells[r*idx.cols+c] {
				if geom.Overlaps(idx.shapes[id], box) {
					return true
				}
			}
		}
	}
	return false
}

// NearestAlong returns the shape overlapping box whose bounding box starts
// nearest along dir, i.e. the first obstacle met when travelling in dir.
// Ties keep the lowest id.
func (idx *Index) NearestAlong(box geom.Rect, dir geom.Direction) (id int, ok bool) {
	var scratch [32]int
	hits := idx.IntersectingInto(scratch[:0], box)
	if len(hits) == 0 {
		return 0, false
	}
	best := hits[0]
	bestKey := idx.approachKey(best, dir)
	for _, h := range hits[1:] {
		if k := idx.approachKey(h, dir); k < bestKey {
			best, bestKey = h, k
		}
	}
	return best, true
}

// SortAlong orders ids by how soon they are met travelling in dir.
func (idx *Index) SortAlong(ids []int, dir geom.Direction) {
	slices.SortStableFunc(ids, func(a, b int) int {
		ka, kb := idx.approachKey(a, dir), idx.approachKey(b, dir)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}

// ApproachKey is the distance-like sort key of shape id along dir: its
// trailing-facing edge, negated for Left/Up so that smaller means sooner.
func (idx *Index) ApproachKey(id int, dir geom.Direction) float32 {
	return idx.approachKey(id, dir)
}

func (idx *Index) approachKey(id int, dir geom.Direction) float32 {
	b := idx.bounds[id]
	// The side of the obstacle that faces a traveller moving in dir.
	edge := b.Leading(dir.Opposite())
	if dir.Sign() < 0 {
		return -edge
	}
	return edge
}

// cellRange returns the inclusive bucket range covered by box, clamped to the
// grid. ok is false when the box misses the grid entirely.
func (idx *Index) cellRange(box geom.Rect) (c0, r0, c1, r1 int, ok bool) {
	if idx.cols == 0 || idx.rows == 0 {
		return 0, 0, 0, 0, false
	}
	c0 = int(math.Floor(float64((box.UL.X - idx.originX) / idx.cellSize)))
	r0 = int(math.Floor(float64((box.UL.Y - idx.originY) / idx.cellSize)))
	c1 = int(math.Floor(float64((box.DR.X - idx.originX) / idx.cellSize)))
	r1 = int(math.Floor(float64((box.DR.Y - idx.originY) / idx.cellSize)))
	if c1 < 0 || r1 < 0 || c0 >= idx.cols || r0 >= idx.rows {
		return 0, 0, 0, 0, false
	}
	c0 = max(c0, 0)
	r0 = max(r0, 0)
	c1 = min(c1, idx.cols-1)
	r1 = min(r1, idx.rows-1)
	return c0, r0, c1, r1, true
}
