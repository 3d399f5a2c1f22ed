package player

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/movement"
	"github.com/pthm-cable/maunakea/world"
)

func TestAngleString(t *testing.T) {
	tests := []struct {
		a    Angle
		want string
	}{
		{4200, "4.2"},
		{99300, "99.3"},
		{4002, "4.002"},
		{90000, "90.0"},
		{0, "0.0"},
		{359999, "359.999"},
		{120, "0.12"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.String())
			back, err := ParseAngle(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.a, back)
		})
	}

	for _, bad := range []string{"", ".5", "1.2345", "x.1", "4.-2"} {
		_, err := ParseAngle(bad)
		assert.Error(t, err, "ParseAngle(%q)", bad)
	}
}

func TestAngleNormalize(t *testing.T) {
	assert.Equal(t, Angle(0), FullTurn.Normalize())
	assert.Equal(t, Angle(359000), Angle(-1000).Normalize())
	assert.Equal(t, Angle(1000), Angle(721000).Normalize())
	assert.Equal(t, Angle(45500), FromDegrees(45.5))
}

func TestPreciseFixReference(t *testing.T) {
	tests := []struct {
		angle Angle
		bound float64
		want  Stick
	}{
		{0, 1, Stick{0, 32767}},
		{90000, 1, Stick{32767, 0}},
		{180000, 1, Stick{0, -32767}},
		{270000, 1, Stick{-32767, 0}},
		{45000, 1, Stick{32767, 32767}},
		{135000, 1, Stick{32767, -32767}},
		{225000, 1, Stick{-32767, -32767}},
		{315000, 1, Stick{-32767, 32767}},
		{0, 0.5, Stick{0, 20479}},
		{90000, 0.5, Stick{20479, 0}},
		{1, 1, Stick{1, 32767}},
		{500, 1, Stick{282, 32314}},
		{1234, 1, Stick{564, 26183}},
		{29999, 1, Stick{18471, 31994}},
		{33333, 1, Stick{21374, 32498}},
		{123456, 1, Stick{26735, -17666}},
		{300001, 1, Stick{-31335, 18092}},
		{10000, 0.5, Stick{2239, 12698}},
		{200000, 0.5, Stick{-3766, -10347}},
	}
	for _, tt := range tests {
		t.Run(tt.angle.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, PreciseFix(tt.angle, tt.bound))
		})
	}
}

func TestPreciseFixUnreachableBound(t *testing.T) {
	// No reading clears the deadzone by so little.
	for _, bound := range []float64{0, -1, 1e-6} {
		assert.Equal(t, Stick{}, PreciseFix(0, bound), "bound %g", bound)
		assert.Equal(t, Stick{}, PreciseFix(123456, bound), "bound %g", bound)
	}
	assert.Equal(t, geom.Point{}, Stick{}.Direction(DefaultDeadzone))

	// The smallest reading outside the deadzone is 8192.
	assert.Equal(t, Stick{0, 8192}, PreciseFix(0, 2e-5))
}

func angularError(s Stick, a Angle) float64 {
	d := math.Atan2(float64(s.X), float64(s.Y)) - a.Radians()
	d = math.Mod(d+3*math.Pi, 2*math.Pi) - math.Pi
	return math.Abs(d)
}

func TestPreciseFixProperties(t *testing.T) {
	angles := []Angle{1, 2, 500, 1234, 30000, 44999, 45001, 89999, 90001, 123456, 200000, 269999, 300001, 359999}
	for a := Angle(0); a < FullTurn; a += 7919 {
		angles = append(angles, a)
	}

	for _, a := range angles {
		s := PreciseFix(a, 1)

		post := s.Magnitude(DefaultDeadzone)
		assert.Greater(t, post, 0.0, "angle %v: stick %v inside deadzone", a, s)
		assert.LessOrEqual(t, post, 1.0, "angle %v: stick %v over bound", a, s)

		rad := a.Radians()
		naive := Stick{
			X: int16(math.Round(StickMax * math.Sin(rad))),
			Y: int16(math.Round(StickMax * math.Cos(rad))),
		}
		assert.LessOrEqual(t, angularError(s, a), angularError(naive, a)+1e-9,
			"angle %v: %v worse than naive %v", a, s, naive)
	}

	for _, a := range []Angle{10000, 60000, 200000} {
		s := PreciseFix(a, 0.5)
		post := s.Magnitude(DefaultDeadzone)
		assert.Greater(t, post, 0.0)
		assert.LessOrEqual(t, post, 0.5, "angle %v: stick %v over bound", a, s)
	}
}

func TestStickConversions(t *testing.T) {
	assert.Equal(t, 1.0, StickToFloat(32767))
	assert.Equal(t, -1.0, StickToFloat(-32767))

	x, y := ApplyDeadzone(0.2, 0, DefaultDeadzone)
	assert.Zero(t, x)
	assert.Zero(t, y)

	x, y = ApplyDeadzone(0, 0.625, DefaultDeadzone)
	assert.Zero(t, x)
	assert.InDelta(t, 0.5, y, 1e-12)

	assert.Equal(t, Angle(90000), Stick{32767, 0}.Angle())
	assert.Equal(t, geom.Pt(0, -1), Stick{0, 32767}.Direction(DefaultDeadzone))
}

func TestPhysicsTarget(t *testing.T) {
	p := DefaultPhysics()

	up := p.Target(0)
	assert.InDelta(t, 0, up.X, 1e-4)
	assert.InDelta(t, -80, up.Y, 1e-4)

	right := p.Target(90000)
	assert.InDelta(t, 60, right.X, 1e-4)
	assert.InDelta(t, 0, right.Y, 1e-4)

	diag := p.Target(135000)
	assert.InDelta(t, 48, diag.X, 1e-3)
	assert.InDelta(t, 48, diag.Y, 1e-3)

	assert.Equal(t, PreciseFix(123456, 1), p.Stick(123456))
	assert.Equal(t, p.Stick(123456), p.Stick(123456+FullTurn))
}

func TestRetention(t *testing.T) {
	var r Retention
	assert.False(t, r.Armed())

	r.Arm(42, 4)
	assert.True(t, r.Armed())
	assert.Equal(t, float32(42), r.Value())
	assert.Equal(t, 4, r.TTL())

	r.Arm(7, 4)
	assert.Equal(t, float32(42), r.Value(), "armed retention must keep its value")

	for range 3 {
		r.Tick()
	}
	assert.True(t, r.Armed())
	r.Tick()
	assert.False(t, r.Armed())
	assert.Zero(t, r.Value())

	r.Arm(-3, 4)
	r.Clear()
	assert.Equal(t, Retention{}, r)
}

// walledTable is a 64x64 room with a floor at y=40, and a wall at x=40
// that ends at y=24.
func walledTable(t *testing.T) *movement.Table {
	t.Helper()
	w := &world.World{
		Bounds: geom.NewRectXYWH(0, 0, 64, 64),
		Blocking: []geom.Shape{
			geom.NewRectXYWH(0, 40, 40, 8),
			geom.NewRectXYWH(40, 0, 8, 24),
		},
		Lethal: []world.Hazard{
			{Shape: geom.NewRectXYWH(48, 48, 12, 12)},
			{Shape: geom.NewRectXYWH(4, 52, 12, 4), Kills: geom.MaskOf(geom.Down)},
		},
	}
	tbl, err := movement.Build(context.Background(), w, Hitbox, Hurtbox, movement.Options{Cap: 16, Workers: 2})
	require.NoError(t, err)
	return tbl
}

var farCheckpoint = geom.NewRectXYWH(0, 0, 2, 2)

func TestNewSplitsPosition(t *testing.T) {
	s := New(DefaultPhysics(), geom.Pt(10.25, 20.5), geom.Pt(1, 2))
	assert.Equal(t, int32(10), s.X)
	assert.Equal(t, int32(20), s.Y)
	assert.InDelta(t, 0.25, s.Remainder.X, 1e-6)
	assert.InDelta(t, 0.5, s.Remainder.Y, 1e-6)
	assert.Equal(t, geom.Pt(10.25, 20.5), s.Position())
	assert.Equal(t, geom.Pt(10.25, 14.5), s.Center())
}

func TestBlockedDownward(t *testing.T) {
	tbl := walledTable(t)
	// hitbox bottom rests on the floor
	s := New(DefaultPhysics(), geom.Pt(20, 42), geom.Pt(0, 80))
	require.Equal(t, uint8(0), tbl.Distance(20, 42, geom.Down))

	out, m := s.Step(180000, tbl, farCheckpoint)
	assert.Equal(t, Nothing, out)
	assert.True(t, m.Blocked[1])
	assert.Equal(t, int32(1), m.Requested[1])
	assert.Equal(t, int32(0), m.Moved[1])
	assert.Zero(t, s.Speed.Y)
	assert.Zero(t, s.Remainder.Y)
	assert.Equal(t, int32(42), s.Y)
	assert.False(t, s.Retain.Armed(), "vertical blocking must not arm retention")
}

func TestFreeMovement(t *testing.T) {
	tbl := walledTable(t)
	s := New(DefaultPhysics(), geom.Pt(20, 30), geom.Pt(60, 0))

	out, m := s.Step(90000, tbl, farCheckpoint)
	assert.Equal(t, Nothing, out)
	assert.Equal(t, [2]bool{}, m.Blocked)
	assert.Equal(t, int32(1), m.Moved[0])
	assert.Equal(t, int32(21), s.X)
	assert.InDelta(t, 0, s.Remainder.X, 1e-6)
}

func TestWallArmsRetention(t *testing.T) {
	tbl := walledTable(t)
	s := New(DefaultPhysics(), geom.Pt(36, 20), geom.Pt(60, 0))
	require.Equal(t, uint8(0), tbl.Distance(36, 20, geom.Right))

	m := s.MoveSelf(tbl)
	assert.True(t, m.Blocked[0])
	assert.Zero(t, s.Speed.X)
	assert.True(t, s.Retain.Armed())
	assert.Equal(t, float32(60), s.Retain.Value())
	assert.Equal(t, 4, s.Retain.TTL())
}

func TestRetentionResolution(t *testing.T) {
	tbl := walledTable(t)
	phys := DefaultPhysics()

	t.Run("still blocked restores speed", func(t *testing.T) {
		s := New(phys, geom.Pt(36, 20), geom.Point{})
		require.Zero(t, tbl.Distance(36, 20, geom.Right))
		s.Retain.Arm(60, 4)

		s.SpeedCalc(135000, tbl)
		assert.Equal(t, float32(50), s.Speed.X)
		assert.False(t, s.Retain.Armed())
	})

	t.Run("wall gone clears", func(t *testing.T) {
		s := New(phys, geom.Pt(36, 34), geom.Point{})
		require.Positive(t, tbl.Distance(36, 34, geom.Right))
		s.Retain.Arm(60, 4)

		s.SpeedCalc(135000, tbl)
		assert.Equal(t, float32(10), s.Speed.X)
		assert.False(t, s.Retain.Armed())
	})

	t.Run("target away from wall clears", func(t *testing.T) {
		s := New(phys, geom.Pt(36, 20), geom.Point{})
		s.Retain.Arm(60, 4)

		s.SpeedCalc(225000, tbl)
		assert.Equal(t, float32(-10), s.Speed.X)
		assert.False(t, s.Retain.Armed())
	})

	t.Run("neutral target ticks down", func(t *testing.T) {
		s := New(phys, geom.Pt(36, 20), geom.Point{})
		s.Retain.Arm(60, 4)

		s.SpeedCalc(0, tbl)
		assert.Zero(t, s.Speed.X)
		assert.True(t, s.Retain.Armed())
		assert.Equal(t, 3, s.Retain.TTL())
	})

	t.Run("holding into the wall keeps speed", func(t *testing.T) {
		s := New(phys, geom.Pt(36, 20), geom.Pt(60, 0))
		for range 3 {
			s.Step(90000, tbl, farCheckpoint)
			assert.Equal(t, int32(36), s.X)
			assert.True(t, s.Retain.Armed())
			assert.Equal(t, float32(60), s.Retain.Value())
		}
		s.SpeedCalc(90000, tbl)
		assert.Equal(t, float32(60), s.Speed.X)
	})
}

func TestSpeedClamp(t *testing.T) {
	tbl := walledTable(t)
	s := New(DefaultPhysics(), geom.Pt(20, 30), geom.Pt(200, -200))
	s.SpeedCalc(90000, tbl)
	assert.Equal(t, float32(60), s.Speed.X)
	assert.Equal(t, float32(-80), s.Speed.Y)
}

func TestCollideInsideHazard(t *testing.T) {
	tbl := walledTable(t)
	phys := DefaultPhysics()
	// hurtbox 51..57 x 51..57 inside the 48..60 hazard
	pos := geom.Pt(54, 60)

	for _, d := range geom.Directions {
		s := New(phys, pos, d.Unit().Scale(10))
		assert.Equal(t, Death, s.Collide(tbl, farCheckpoint), "moving %v", d)
	}
	s := New(phys, pos, geom.Point{})
	assert.Equal(t, Death, s.Collide(tbl, farCheckpoint), "stationary")

	// death wins over a checkpoint overlap
	assert.Equal(t, Death, s.Collide(tbl, s.Hitbox()))
}

func TestCollideDirectionalSpike(t *testing.T) {
	tbl := walledTable(t)
	phys := DefaultPhysics()
	// hurtbox 7..13 x 50..56 overlaps the spike at 52..56
	pos := geom.Pt(10, 59)

	down := New(phys, pos, geom.Pt(0, 20))
	assert.Equal(t, Death, down.Collide(tbl, farCheckpoint))

	up := New(phys, pos, geom.Pt(0, -20))
	assert.Equal(t, Nothing, up.Collide(tbl, farCheckpoint))

	sideways := New(phys, pos, geom.Pt(30, 0))
	assert.Equal(t, Nothing, sideways.Collide(tbl, farCheckpoint))
}

func TestSpikeOnFloorKillsWhileLanding(t *testing.T) {
	// A downward spike strip lying on a floor at y=40.
	w := &world.World{
		Bounds:   geom.NewRectXYWH(0, 0, 64, 64),
		Blocking: []geom.Shape{geom.NewRectXYWH(0, 40, 64, 8)},
		Lethal:   []world.Hazard{{Shape: geom.NewRectXYWH(0, 38, 64, 2), Kills: geom.MaskOf(geom.Down)}},
	}
	tbl, err := movement.Build(context.Background(), w, Hitbox, Hurtbox, movement.Options{Cap: 16, Workers: 2})
	require.NoError(t, err)
	phys := DefaultPhysics()

	for _, angle := range []Angle{180000, 135000, 225000} {
		t.Run(angle.String(), func(t *testing.T) {
			s := New(phys, geom.Pt(20, 41.4), geom.Pt(0, 80))
			out, m := s.Step(angle, tbl, farCheckpoint)
			require.True(t, m.Blocked[1], "the floor must stop the fall")
			assert.Equal(t, int32(42), s.Y)
			assert.Zero(t, s.Speed.Y)
			assert.Equal(t, Death, out)
		})
	}

	// Rising off the strip is safe.
	s := New(phys, geom.Pt(20, 42), geom.Pt(0, -20))
	out, _ := s.Step(0, tbl, farCheckpoint)
	assert.Equal(t, Nothing, out)
}

func TestCollideCheckpoint(t *testing.T) {
	tbl := walledTable(t)
	s := New(DefaultPhysics(), geom.Pt(20, 30), geom.Point{})
	assert.Equal(t, CheckpointHit, s.Collide(tbl, geom.NewRectXYWH(22, 18, 10, 10)))
	// touching edges do not count
	assert.Equal(t, Nothing, s.Collide(tbl, geom.NewRectXYWH(24, 18, 10, 10)))
}

func TestClone(t *testing.T) {
	s := New(DefaultPhysics(), geom.Pt(20, 30), geom.Pt(10, 0))
	c := s.Clone()
	c.Speed.X = 50
	c.X++
	c.Retain.Arm(1, 4)
	assert.Equal(t, float32(10), s.Speed.X)
	assert.Equal(t, int32(20), s.X)
	assert.False(t, s.Retain.Armed())
	assert.Same(t, s.Physics(), c.Physics())
}
