// Package movement precomputes, for every integer character position in a
// world, how far the character can move in each cardinal direction before
// hitting blocking geometry, and whether moving in that direction there is
// fatal. The simulator only ever reads this table.
package movement

import (
	"log/slog"
	"math"
	"slices"

	"github.com/pthm-cable/maunakea/geom"
)

// DefaultCap is the largest distance a table stores unless told otherwise.
const DefaultCap = 255

// Table is the per-cell movement lookup of one world. It is immutable after
// Build and safe for concurrent readers.
type Table struct {
	originX, originY int32
	width, height    int32
	cap              uint8
	key              Key

	// distances holds NumDirections bytes per cell in row-major order.
	distances []uint8
	// lethal holds one kill mask per cell.
	lethal []geom.DirectionMask
}

// Key identifies the inputs a table was built from.
type Key struct {
	Fingerprint uint64
	Cap         uint8
	Hit         geom.Rect
	Hurt        geom.Rect
}

// Key returns the build inputs of the table.
func (t *Table) Key() Key { return t.key }

// Cap returns the distance cap.
func (t *Table) Cap() uint8 { return t.cap }

// Width returns the number of cell columns.
func (t *Table) Width() int32 { return t.width }

// Height returns the number of cell rows.
func (t *Table) Height() int32 { return t.height }

// Origin returns the logical position of the first cell.
func (t *Table) Origin() (x, y int32) { return t.originX, t.originY }

// InBounds reports whether (x, y) is a cell of the table.
func (t *Table) InBounds(x, y int32) bool {
	return x >= t.originX && y >= t.originY && x < t.originX+t.width && y < t.originY+t.height
}

func (t *Table) cell(x, y int32) int {
	return int(y-t.originY)*int(t.width) + int(x-t.originX)
}

// Distance returns how many whole pixels the character at (x, y) can move
// in dir. Positions outside the table report 0.
func (t *Table) Distance(x, y int32, dir geom.Direction) uint8 {
	if !t.InBounds(x, y) {
		return 0
	}
	return t.distances[t.cell(x, y)*geom.NumDirections+int(dir)]
}

// Lethal reports whether moving in dir while at (x, y) kills the character.
func (t *Table) Lethal(x, y int32, dir geom.Direction) bool {
	if !t.InBounds(x, y) {
		return false
	}
	return t.lethal[t.cell(x, y)].Has(dir)
}

// LethalMask returns the kill mask of the cell at (x, y).
func (t *Table) LethalMask(x, y int32) geom.DirectionMask {
	if !t.InBounds(x, y) {
		return 0
	}
	return t.lethal[t.cell(x, y)]
}

// Equal reports whether both tables hold bit-identical data.
func (t *Table) Equal(o *Table) bool {
	return t.originX == o.originX && t.originY == o.originY &&
		t.width == o.width && t.height == o.height &&
		t.key == o.key &&
		slices.Equal(t.distances, o.distances) &&
		slices.Equal(t.lethal, o.lethal)
}

// Stats summarises a table.
type Stats struct {
	Cells    int
	Embedded int     // cells with no free direction
	Lethal   int     // cells with any lethal direction
	Capped   int     // directional entries at the cap
	MeanFree float64 // mean stored distance
}

// Stats computes summary counts over the whole table.
func (t *Table) Stats() Stats {
	s := Stats{Cells: int(t.width) * int(t.height)}
	var total float64
	for c := range s.Cells {
		row := t.distances[c*geom.NumDirections : (c+1)*geom.NumDirections]
		embedded := true
		for _, d := range row {
			total += float64(d)
			if d == t.cap {
				s.Capped++
			}
			if d != 0 {
				embedded = false
			}
		}
		if embedded {
			s.Embedded++
		}
		if t.lethal[c] != 0 {
			s.Lethal++
		}
	}
	if len(t.distances) > 0 {
		s.MeanFree = total / float64(len(t.distances))
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cells", s.Cells),
		slog.Int("embedded", s.Embedded),
		slog.Int("lethal", s.Lethal),
		slog.Int("capped", s.Capped),
		slog.Float64("mean_free", math.Round(s.MeanFree*100)/100),
	)
}
