package world

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/maunakea/geom"
)

func TestValidate(t *testing.T) {
	bounds := geom.NewRectXYWH(0, 0, 100, 100)

	tests := []struct {
		name    string
		world   World
		wantErr bool
	}{
		{"empty world", World{Bounds: bounds}, false},
		{"zero width bounds", World{Bounds: geom.NewRectXYWH(0, 0, 0, 10)}, true},
		{"negative height bounds", World{Bounds: geom.NewRectXYWH(0, 0, 10, -5)}, true},
		{"nan bounds", World{Bounds: geom.NewRectXYWH(float32(math.NaN()), 0, 10, 10)}, true},
		{"solid inside", World{Bounds: bounds, Blocking: []geom.Shape{geom.NewRectXYWH(10, 10, 8, 8)}}, false},
		{"solid outside", World{Bounds: bounds, Blocking: []geom.Shape{geom.NewRectXYWH(96, 10, 8, 8)}}, true},
		{"degenerate solid", World{Bounds: bounds, Blocking: []geom.Shape{geom.NewRectXYWH(10, 10, 0, 8)}}, true},
		{"circle crossing bounds", World{Bounds: bounds, Lethal: []Hazard{{Shape: geom.NewCircle(geom.Pt(2, 50), 6)}}}, true},
		{"zero radius", World{Bounds: bounds, Lethal: []Hazard{{Shape: geom.NewCircle(geom.Pt(50, 50), 0)}}}, true},
		{"nil shape", World{Bounds: bounds, Blocking: []geom.Shape{nil}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.world.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedWorld), "error should wrap ErrMalformedWorld: %v", err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHazardKillsFrom(t *testing.T) {
	spinner := Hazard{Shape: geom.NewCircle(geom.Pt(0, 0), 6)}
	for _, d := range geom.Directions {
		assert.True(t, spinner.KillsFrom(d))
	}

	spike := Hazard{Shape: geom.NewRectXYWH(0, 0, 8, 3), Kills: geom.MaskOf(geom.Down)}
	assert.True(t, spike.KillsFrom(geom.Down))
	assert.False(t, spike.KillsFrom(geom.Up))
}

func TestFingerprint(t *testing.T) {
	a := World{
		Bounds:   geom.NewRectXYWH(0, 0, 100, 100),
		Blocking: []geom.Shape{geom.NewRectXYWH(10, 10, 8, 8)},
		Lethal:   []Hazard{{Shape: geom.NewCircle(geom.Pt(50, 50), 6)}},
	}
	b := a
	b.Blocking = []geom.Shape{geom.NewRectXYWH(10, 10, 8, 8)}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Blocking = []geom.Shape{geom.NewRectXYWH(11, 10, 8, 8)}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := a
	c.Lethal = []Hazard{{Shape: geom.NewCircle(geom.Pt(50, 50), 6), Kills: geom.MaskOf(geom.Up)}}
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

const scenarioYAML = `
name: corridor
bounds: {x: -100, y: -50, width: 200, height: 100}
start:
  position: [-80, 0]
  speed: [0, -20]
solids:
  - rect: [-100, 30, 200, 8]
  - circle: [0, -20, 4]
tiles:
  rows:
    - "1001"
    - "0000"
hazards:
  - rect: [40, 20, 16, 8]
    kills: [down]
spinners:
  - [60, -20]
checkpoints:
  - [-10, -10, 10, 10]
  - [70, 0, 90, 20]
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "corridor", sc.Name)
	assert.Equal(t, geom.NewRectXYWH(-100, -50, 200, 100), sc.World.Bounds)
	assert.Equal(t, geom.Pt(-80, 0), sc.Start.Position)
	assert.Equal(t, geom.Pt(0, -20), sc.Start.Speed)

	// 2 explicit solids + 2 tiles
	require.Len(t, sc.World.Blocking, 4)
	assert.Equal(t, geom.NewRectXYWH(-100, -50, 8, 8), sc.World.Blocking[2])
	assert.Equal(t, geom.NewRectXYWH(-76, -50, 8, 8), sc.World.Blocking[3])

	// 1 hazard + spinner circle and bar
	require.Len(t, sc.World.Lethal, 3)
	assert.True(t, sc.World.Lethal[0].KillsFrom(geom.Down))
	assert.False(t, sc.World.Lethal[0].KillsFrom(geom.Left))
	assert.Equal(t, geom.NewCircle(geom.Pt(60, -20), 6), sc.World.Lethal[1].Shape)
	assert.Equal(t, geom.NewRectXYWH(52, -15, 16, 4), sc.World.Lethal[2].Shape)

	require.Len(t, sc.Checkpoints, 2)
	assert.Equal(t, geom.NewRect(geom.Pt(70, 0), geom.Pt(90, 20)), sc.Checkpoints[1])
}

func TestSpinner(t *testing.T) {
	hz := Spinner(geom.Pt(96, 64))
	require.Len(t, hz, 2)
	assert.Equal(t, geom.NewCircle(geom.Pt(96, 64), 6), hz[0].Shape)
	// The bar hangs below the crystal, clear of its bottom edge.
	assert.Equal(t, geom.NewRectXYWH(88, 69, 16, 4), hz[1].Shape)
	for _, h := range hz {
		for _, d := range geom.Directions {
			assert.True(t, h.KillsFrom(d), "%v from %v", h.Shape, d)
		}
	}
}

func TestParseScenarioRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no checkpoints", `
bounds: {x: 0, y: 0, width: 10, height: 10}
start: {position: [5, 5]}
`},
		{"start outside", `
bounds: {x: 0, y: 0, width: 10, height: 10}
start: {position: [50, 5]}
checkpoints: [[1, 1, 2, 2]]
`},
		{"bad shape", `
bounds: {x: 0, y: 0, width: 10, height: 10}
start: {position: [5, 5]}
solids: [{rect: [1, 2, 3]}]
checkpoints: [[1, 1, 2, 2]]
`},
		{"bad direction", `
bounds: {x: 0, y: 0, width: 10, height: 10}
start: {position: [5, 5]}
hazards: [{rect: [1, 1, 2, 2], kills: [sideways]}]
checkpoints: [[1, 1, 2, 2]]
`},
		{"non-positive bounds", `
bounds: {x: 0, y: 0, width: 0, height: 10}
start: {position: [0, 5]}
checkpoints: [[1, 1, 2, 2]]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenarioExample(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("..", "scenarios", "lake.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "lake", sc.Name)
	assert.Len(t, sc.Checkpoints, 2)
	// spike strip + spinner circle and bar
	assert.Len(t, sc.World.Lethal, 3)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
