// Package world holds the immutable level geometry a run is simulated in,
// and the scenario files that bundle it with a start state and checkpoints.
package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/pthm-cable/maunakea/geom"
)

// ErrMalformedWorld is wrapped by every validation failure of level data.
var ErrMalformedWorld = errors.New("malformed world")

// Hazard is a lethal shape. Kills lists the directions of approach that are
// fatal; the zero mask means every direction (spinners), a single direction
// models spikes.
type Hazard struct {
	Shape geom.Shape
	Kills geom.DirectionMask
}

// KillsFrom reports whether moving in dir into the hazard is fatal.
func (h Hazard) KillsFrom(dir geom.Direction) bool {
	return h.Kills.OrAll().Has(dir)
}

// World is the static geometry of one level. It is built once by a loader and
// never mutated while simulating or searching.
type World struct {
	Bounds   geom.Rect
	Blocking []geom.Shape
	Lethal   []Hazard
}

// LethalShapes returns the hazard shapes in hazard order.
func (w *World) LethalShapes() []geom.Shape {
	shapes := make([]geom.Shape, len(w.Lethal))
	for i, h := range w.Lethal {
		shapes[i] = h.Shape
	}
	return shapes
}

// Validate rejects bounds with non-positive extent, non-finite coordinates,
// degenerate shapes, and obstacles that reach outside the bounds.
func (w *World) Validate() error {
	if !w.Bounds.IsFinite() {
		return fmt.Errorf("%w: bounds %v are not finite", ErrMalformedWorld, w.Bounds)
	}
	if !w.Bounds.Valid() {
		return fmt.Errorf("%w: bounds %v have non-positive extent", ErrMalformedWorld, w.Bounds)
	}
	for i, s := range w.Blocking {
		if err := w.checkShape(s); err != nil {
			return fmt.Errorf("%w: blocking shape %d: %v", ErrMalformedWorld, i, err)
		}
	}
	for i, h := range w.Lethal {
		if err := w.checkShape(h.Shape); err != nil {
			return fmt.Errorf("%w: lethal shape %d: %v", ErrMalformedWorld, i, err)
		}
	}
	return nil
}

func (w *World) checkShape(s geom.Shape) error {
	if s == nil {
		return errors.New("nil shape")
	}
	if !s.IsFinite() {
		return fmt.Errorf("%v has non-finite coordinates", s)
	}
	switch s := s.(type) {
	case geom.Rect:
		if !s.Valid() {
			return fmt.Errorf("%v has non-positive extent", s)
		}
	case geom.Circle:
		if s.Radius <= 0 {
			return fmt.Errorf("%v has non-positive radius", s)
		}
	}
	if !w.Bounds.ContainsRect(s.Bounds()) {
		return fmt.Errorf("%v lies outside bounds %v", s, w.Bounds)
	}
	return nil
}

// Fingerprint returns a stable digest of the bounds and both obstacle sets.
// Two worlds with the same fingerprint produce the same movement table.
func (w *World) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	putF := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	putShape := func(s geom.Shape) {
		switch s := s.(type) {
		case geom.Rect:
			h.Write([]byte{'R'})
			putF(s.UL.X)
			putF(s.UL.Y)
			putF(s.DR.X)
			putF(s.DR.Y)
		case geom.Circle:
			h.Write([]byte{'C'})
			putF(s.Origin.X)
			putF(s.Origin.Y)
			putF(s.Radius)
		}
	}

	putShape(w.Bounds)
	h.Write([]byte{'B'})
	for _, s := range w.Blocking {
		putShape(s)
	}
	h.Write([]byte{'L'})
	for _, hz := range w.Lethal {
		putShape(hz.Shape)
		h.Write([]byte{byte(hz.Kills.OrAll())})
	}
	return h.Sum64()
}
