package world

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/maunakea/geom"
)

// Level tile and spinner geometry.
const (
	TileSize       = 8
	spinnerRadius  = 6
	spinnerBarW    = 16
	spinnerBarH    = 4
	spinnerBarOffX = -8
	spinnerBarOffY = 5
)

// Start is the initial character state.
type Start struct {
	Position geom.Point
	Speed    geom.Point
}

// Scenario bundles a world with the character start and the ordered
// checkpoints a run has to pass through.
type Scenario struct {
	Name        string
	World       World
	Start       Start
	Checkpoints []geom.Rect
}

// Validate checks the world and the scenario-level invariants.
func (s *Scenario) Validate() error {
	if err := s.World.Validate(); err != nil {
		return err
	}
	if len(s.Checkpoints) == 0 {
		return fmt.Errorf("%w: scenario has no checkpoints", ErrMalformedWorld)
	}
	for i, cp := range s.Checkpoints {
		if !cp.IsFinite() || !cp.Valid() {
			return fmt.Errorf("%w: checkpoint %d %v has non-positive extent", ErrMalformedWorld, i, cp)
		}
	}
	p := s.Start.Position
	b := s.World.Bounds
	if !p.IsFinite() || p.X < b.UL.X || p.Y < b.UL.Y || p.X >= b.DR.X || p.Y >= b.DR.Y {
		return fmt.Errorf("%w: start position %v outside bounds %v", ErrMalformedWorld, p, b)
	}
	if !s.Start.Speed.IsFinite() {
		return fmt.Errorf("%w: start speed %v is not finite", ErrMalformedWorld, s.Start.Speed)
	}
	return nil
}

// scenarioFile is the YAML layout of a scenario.
type scenarioFile struct {
	Name   string `yaml:"name"`
	Bounds struct {
		X      float32 `yaml:"x"`
		Y      float32 `yaml:"y"`
		Width  float32 `yaml:"width"`
		Height float32 `yaml:"height"`
	} `yaml:"bounds"`
	Start struct {
		Position []float32 `yaml:"position"` // [x, y]
		Speed    []float32 `yaml:"speed"`    // [x, y]
	} `yaml:"start"`
	Solids      []shapeSpec  `yaml:"solids"`
	Tiles       *tileSpec    `yaml:"tiles"`
	Hazards     []hazardSpec `yaml:"hazards"`
	Spinners    [][]float32  `yaml:"spinners"`    // [x, y] centres
	Checkpoints [][]float32  `yaml:"checkpoints"` // [x1, y1, x2, y2]
}

type shapeSpec struct {
	Rect   []float32 `yaml:"rect"`   // [x, y, w, h]
	Circle []float32 `yaml:"circle"` // [x, y, r]
}

type hazardSpec struct {
	shapeSpec `yaml:",inline"`
	Kills     []string `yaml:"kills"` // directions of approach that kill; empty = all
}

// tileSpec is the solid tile grid shorthand of level dumps: one string per
// row, any character other than '0' is an 8x8 solid tile.
type tileSpec struct {
	Origin []float32 `yaml:"origin"` // defaults to the bounds corner
	Rows   []string  `yaml:"rows"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	sc := &Scenario{Name: f.Name}
	sc.World.Bounds = geom.NewRectXYWH(f.Bounds.X, f.Bounds.Y, f.Bounds.Width, f.Bounds.Height)

	pos, err := pair("start.position", f.Start.Position)
	if err != nil {
		return nil, err
	}
	sc.Start.Position = pos
	if len(f.Start.Speed) > 0 {
		if sc.Start.Speed, err = pair("start.speed", f.Start.Speed); err != nil {
			return nil, err
		}
	}

	for i, spec := range f.Solids {
		s, err := spec.shape()
		if err != nil {
			return nil, fmt.Errorf("solids[%d]: %w", i, err)
		}
		sc.World.Blocking = append(sc.World.Blocking, s)
	}
	if f.Tiles != nil {
		origin := sc.World.Bounds.UL
		if len(f.Tiles.Origin) > 0 {
			if origin, err = pair("tiles.origin", f.Tiles.Origin); err != nil {
				return nil, err
			}
		}
		sc.World.Blocking = append(sc.World.Blocking, expandTiles(origin, f.Tiles.Rows)...)
	}

	for i, spec := range f.Hazards {
		s, err := spec.shape()
		if err != nil {
			return nil, fmt.Errorf("hazards[%d]: %w", i, err)
		}
		mask, err := parseKills(spec.Kills)
		if err != nil {
			return nil, fmt.Errorf("hazards[%d]: %w", i, err)
		}
		sc.World.Lethal = append(sc.World.Lethal, Hazard{Shape: s, Kills: mask})
	}
	for i, c := range f.Spinners {
		p, err := pair(fmt.Sprintf("spinners[%d]", i), c)
		if err != nil {
			return nil, err
		}
		sc.World.Lethal = append(sc.World.Lethal, Spinner(p)...)
	}

	for i, c := range f.Checkpoints {
		if len(c) != 4 {
			return nil, fmt.Errorf("checkpoints[%d]: want [x1, y1, x2, y2], got %d values", i, len(c))
		}
		sc.Checkpoints = append(sc.Checkpoints, geom.NewRect(geom.Pt(c[0], c[1]), geom.Pt(c[2], c[3])))
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Spinner returns the two lethal shapes of a crystal spinner centred at p.
func Spinner(p geom.Point) []Hazard {
	return []Hazard{
		{Shape: geom.NewCircle(p, spinnerRadius)},
		{Shape: geom.NewRectXYWH(p.X+spinnerBarOffX, p.Y+spinnerBarOffY, spinnerBarW, spinnerBarH)},
	}
}

func expandTiles(origin geom.Point, rows []string) []geom.Shape {
	var tiles []geom.Shape
	for y, row := range rows {
		for x, c := range strings.TrimRight(row, "\r") {
			if c == '0' {
				continue
			}
			tiles = append(tiles, geom.NewRectXYWH(
				origin.X+float32(x*TileSize),
				origin.Y+float32(y*TileSize),
				TileSize, TileSize,
			))
		}
	}
	return tiles
}

func (s shapeSpec) shape() (geom.Shape, error) {
	switch {
	case len(s.Rect) > 0 && len(s.Circle) > 0:
		return nil, fmt.Errorf("both rect and circle given")
	case len(s.Rect) == 4:
		return geom.NewRectXYWH(s.Rect[0], s.Rect[1], s.Rect[2], s.Rect[3]), nil
	case len(s.Circle) == 3:
		return geom.NewCircle(geom.Pt(s.Circle[0], s.Circle[1]), s.Circle[2]), nil
	}
	return nil, fmt.Errorf("want rect [x, y, w, h] or circle [x, y, r]")
}

func parseKills(names []string) (geom.DirectionMask, error) {
	var m geom.DirectionMask
	for _, n := range names {
		d, ok := directionByName[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown direction %q", n)
		}
		m |= geom.MaskOf(d)
	}
	return m, nil
}

var directionByName = map[string]geom.Direction{
	"left":  geom.Left,
	"up":    geom.Up,
	"right": geom.Right,
	"down":  geom.Down,
}

func pair(field string, v []float32) (geom.Point, error) {
	if len(v) != 2 {
		return geom.Point{}, fmt.Errorf("%s: want [x, y], got %d values", field, len(v))
	}
	return geom.Pt(v[0], v[1]), nil
}
