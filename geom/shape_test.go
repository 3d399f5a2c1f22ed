package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	box := NewRectXYWH(0, 0, 10, 10)

	tests := []struct {
		name string
		a, b Shape
		want bool
	}{
		{"rect inside rect", box, NewRectXYWH(2, 2, 2, 2), true},
		{"rect partial overlap", box, NewRectXYWH(9, 9, 5, 5), true},
		{"rect touching edge", box, NewRectXYWH(10, 0, 5, 10), false},
		{"rect far away", box, NewRectXYWH(20, 20, 1, 1), false},
		{"circle centred inside rect", box, NewCircle(Pt(5, 5), 1), true},
		{"circle near corner", box, NewCircle(Pt(12, 12), 3), true},
		{"circle diagonal miss", box, NewCircle(Pt(13, 13), 3), false},
		{"circle tangent to edge", box, NewCircle(Pt(13, 5), 3), false},
		{"circle circle overlap", NewCircle(Pt(0, 0), 2), NewCircle(Pt(3, 0), 2), true},
		{"circle circle tangent", NewCircle(Pt(0, 0), 2), NewCircle(Pt(4, 0), 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestContains(t *testing.T) {
	box := NewRectXYWH(0, 0, 10, 10)
	assert.True(t, Contains(box, Pt(5, 5)))
	assert.False(t, Contains(box, Pt(10, 5)))
	assert.True(t, Contains(NewCircle(Pt(0, 0), 2), Pt(1, 1)))
	assert.False(t, Contains(NewCircle(Pt(0, 0), 2), Pt(2, 0)))
}

func TestRectHelpers(t *testing.T) {
	r := NewRectXYWH(2, 4, 6, 8)
	assert.Equal(t, Pt(8, 4), r.UR())
	assert.Equal(t, Pt(2, 12), r.DL())
	assert.Equal(t, Pt(5, 8), r.Center())
	assert.True(t, r.Valid())
	assert.False(t, NewRectXYWH(0, 0, 0, 3).Valid())

	assert.Equal(t, float32(-1), r.Extend(Left, 3).UL.X)
	assert.Equal(t, float32(15), r.Extend(Down, 3).DR.Y)
	assert.Equal(t, float32(8), r.Leading(Right))
	assert.Equal(t, float32(4), r.Leading(Up))
	assert.Equal(t, NewRectXYWH(3, 3, 6, 8), r.Translate(Pt(1, -1)))
}

func TestPointOps(t *testing.T) {
	p := Pt(3, 4)
	assert.Equal(t, float32(5), p.Magnitude())
	assert.Equal(t, Pt(0.6, 0.8), p.Normalize())
	assert.Equal(t, Point{}, Point{}.Normalize())
	assert.Equal(t, float32(25), p.Dot(p))
	assert.Equal(t, Pt(6, 8), p.Scale(2))
	assert.Equal(t, Pt(3, 8), p.Mul(Pt(1, 2)))
	assert.Equal(t, float32(5), Point{}.Distance(p))
	assert.False(t, Pt(float32(math.NaN()), 0).IsFinite())
}

func TestDirection(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		assert.Equal(t, d.Axis(), d.Opposite().Axis())
		assert.Equal(t, -d.Sign(), d.Opposite().Sign())
	}

	d, ok := DirectionFor(Horizontal, -0.5)
	require.True(t, ok)
	assert.Equal(t, Left, d)
	d, ok = DirectionFor(Vertical, 2)
	require.True(t, ok)
	assert.Equal(t, Down, d)
	_, ok = DirectionFor(Vertical, 0)
	assert.False(t, ok)

	m := MaskOf(Up, Down)
	assert.True(t, m.Has(Up))
	assert.False(t, m.Has(Left))
	assert.Equal(t, AllDirections, DirectionMask(0).OrAll())
}

func TestSweepRect(t *testing.T) {
	target := NewRectXYWH(10, 0, 10, 10)

	tests := []struct {
		name  string
		r     Rect
		delta Point
		hit   bool
		t     float32
	}{
		{"half way", NewRectXYWH(0, 0, 5, 5), Pt(10, 0), true, 0.5},
		{"already inside", NewRectXYWH(12, 2, 2, 2), Pt(1, 0), true, 0},
		{"stops short", NewRectXYWH(0, 0, 5, 5), Pt(4, 0), false, 0},
		{"wrong row", NewRectXYWH(0, 20, 5, 5), Pt(10, 0), false, 0},
		{"no motion outside", NewRectXYWH(0, 0, 5, 5), Point{}, false, 0},
		{"diagonal", NewRectXYWH(0, -10, 5, 5), Pt(10, 10), true, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := SweepRect(tt.r, tt.delta, target)
			require.Equal(t, tt.hit, hit)
			if hit {
				assert.InDelta(t, tt.t, got, 1e-6)
			}
		})
	}
}
