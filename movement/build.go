package movement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/spatial"
	"github.com/pthm-cable/maunakea/world"
)

// ErrZeroCap is returned when a build is asked for a zero distance cap.
var ErrZeroCap = errors.New("movement: distance cap must be positive")

// Options tune a table build.
type Options struct {
	Cap      uint8   // largest stored distance, must be positive
	Workers  int     // concurrent row workers; 0 selects GOMAXPROCS
	CellSize float32 // spatial index bucket size; 0 selects spatial.DefaultCellSize
}

// DefaultOptions returns options with DefaultCap and automatic parallelism.
func DefaultOptions() Options {
	return Options{Cap: DefaultCap}
}

// rowsPerTask keeps individual tasks short enough that cancellation is
// noticed quickly.
const rowsPerTask = 8

// Build computes the movement table of w for a character whose hitbox and
// hurtbox are given relative to its logical position. Malformed worlds and a
// zero cap are rejected before any work starts.
func Build(ctx context.Context, w *world.World, hit, hurt geom.Rect, opts Options) (*Table, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if !hit.Valid() || !hurt.Valid() {
		return nil, fmt.Errorf("movement: character boxes must have positive extent (hit %v, hurt %v)", hit, hurt)
	}
	if opts.Cap == 0 {
		return nil, ErrZeroCap
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	b := w.Bounds
	ox := int32(math.Ceil(float64(b.UL.X)))
	oy := int32(math.Ceil(float64(b.UL.Y)))
	t := &Table{
		originX: ox,
		originY: oy,
		width:   int32(math.Ceil(float64(b.DR.X))) - ox,
		height:  int32(math.Ceil(float64(b.DR.Y))) - oy,
		cap:     opts.Cap,
		key:     Key{Fingerprint: w.Fingerprint(), Cap: opts.Cap, Hit: hit, Hurt: hurt},
	}
	if t.width <= 0 || t.height <= 0 {
		return nil, fmt.Errorf("%w: bounds %v contain no integer position", world.ErrMalformedWorld, b)
	}
	cells := int(t.width) * int(t.height)
	t.distances = make([]uint8, cells*geom.NumDirections)
	t.lethal = make([]geom.DirectionMask, cells)

	p := &prober{
		table:    t,
		bounds:   b,
		hit:      hit,
		hurt:     hurt,
		blocking: spatial.Build(w.Blocking, opts.CellSize),
		lethal:   spatial.Build(w.LethalShapes(), opts.CellSize),
		hazards:  w.Lethal,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for row := int32(0); row < t.height; row += rowsPerTask {
		end := min(row+rowsPerTask, t.height)
		g.Go(func() error {
			var scratch []int
			for r := row; r < end; r++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				scratch = p.fillRow(oy+r, scratch)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("movement: build interrupted: %w", err)
	}
	return t, nil
}

// prober answers distance and lethality queries for single cells. It only
// reads shared state, so one prober serves every worker.
type prober struct {
	table    *Table
	bounds   geom.Rect
	hit      geom.Rect
	hurt     geom.Rect
	blocking *spatial.Index
	lethal   *spatial.Index
	hazards  []world.Hazard
}

// fillRow writes every slot of row y. Each slot is written by exactly one
// worker.
func (p *prober) fillRow(y int32, scratch []int) []int {
	t := p.table
	for x := t.originX; x < t.originX+t.width; x++ {
		c := t.cell(x, y)
		pos := geom.Pt(float32(x), float32(y))

		// Bounds act as walls, so a hitbox poking out of them is embedded
		// just like one overlapping blocking geometry.
		hitbox := p.hit.Translate(pos)
		if p.bounds.ContainsRect(hitbox) && !p.blocking.AnyIntersecting(hitbox) {
			for _, dir := range geom.Directions {
				var d uint8
				d, scratch = p.distance(x, y, hitbox, dir, scratch)
				t.distances[c*geom.NumDirections+int(dir)] = d
			}
		}

		hurtbox := p.hurt.Translate(pos)
		var mask geom.DirectionMask
		scratch = p.lethal.IntersectingInto(scratch[:0], hurtbox)
		for _, id := range scratch {
			mask |= p.hazards[id].Kills.OrAll()
		}
		t.lethal[c] = mask
	}
	return scratch
}

// distance returns the free distance from a hitbox that lies inside the
// bounds and does not overlap blocking geometry.
func (p *prober) distance(x, y int32, box geom.Rect, dir geom.Direction, scratch []int) (uint8, []int) {
	limit := min(p.boundsLimit(x, y, box, dir), int32(p.table.cap))
	if limit <= 0 {
		return 0, scratch
	}

	swept := box.Extend(dir, float32(limit))
	nearest, ok := p.blocking.NearestAlong(swept, dir)
	if !ok {
		return uint8(limit), scratch
	}

	leading := box.Leading(dir)
	sign := float32(dir.Sign())
	gap := func(id int) int32 {
		g := (p.blocking.ApproachKey(id, dir)*sign - leading) * sign
		return int32(math.Floor(float64(g)))
	}

	// A rectangle is met exactly where its bounding box is, so the first
	// one along dir settles the distance.
	if _, isRect := p.blocking.Shape(nearest).(geom.Rect); isRect {
		return uint8(max(min(gap(nearest), limit), 0)), scratch
	}

	scratch = p.blocking.IntersectingInto(scratch[:0], swept)
	p.blocking.SortAlong(scratch, dir)
	best := limit
	for _, id := range scratch {
		// Shapes are ordered by how soon their bounding box is met, which
		// is a lower bound of the real contact distance.
		g := gap(id)
		if g >= best {
			break
		}
		switch s := p.blocking.Shape(id).(type) {
		case geom.Rect:
			best = min(best, g)
		case geom.Circle:
			best = min(best, stepUntilContact(box, s, dir, best))
		}
	}
	return uint8(max(best, 0)), scratch
}

// stepUntilContact advances box one pixel at a time and returns the last
// free step below limit.
func stepUntilContact(box geom.Rect, c geom.Circle, dir geom.Direction, limit int32) int32 {
	unit := dir.Unit()
	for k := int32(0); k < limit; k++ {
		if geom.Overlaps(box.Translate(unit.Scale(float32(k+1))), c) {
			return k
		}
	}
	return limit
}

// boundsLimit treats the world bounds as walls: the hitbox may not leave the
// bounds and the logical position may not leave the table.
func (p *prober) boundsLimit(x, y int32, box geom.Rect, dir geom.Direction) int32 {
	t := p.table
	var wall float32
	var cells int32
	switch dir {
	case geom.Left:
		wall = box.UL.X - p.bounds.UL.X
		cells = x - t.originX
	case geom.Up:
		wall = box.UL.Y - p.bounds.UL.Y
		cells = y - t.originY
	case geom.Right:
		wall = p.bounds.DR.X - box.DR.X
		cells = t.originX + t.width - 1 - x
	case geom.Down:
		wall = p.bounds.DR.Y - box.DR.Y
		cells = t.originY + t.height - 1 - y
	}
	return min(int32(math.Floor(float64(wall))), cells)
}
