package geom

// Direction is one of the four cardinal movement directions.
type Direction uint8

const (
	Left Direction = iota
	Up
	Right
	Down
)

// NumDirections is the number of cardinal directions.
const NumDirections = 4

// Directions lists all directions in index order.
var Directions = [NumDirections]Direction{Left, Up, Right, Down}

// Axis is a movement axis.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

// Axis returns the axis the direction moves along.
func (d Direction) Axis() Axis {
	if d == Left || d == Right {
		return Horizontal
	}
	return Vertical
}

// Sign returns -1 for Left/Up and +1 for Right/Down.
func (d Direction) Sign() int32 {
	if d == Left || d == Up {
		return -1
	}
	return 1
}

// Unit returns the unit vector of the direction.
func (d Direction) Unit() Point {
	switch d {
	case Left:
		return Point{-1, 0}
	case Up:
		return Point{0, -1}
	case Right:
		return Point{1, 0}
	default:
		return Point{0, 1}
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return (d + 2) % NumDirections
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	}
	return "invalid"
}

// DirectionFor returns the direction of travel along axis for a signed amount.
// ok is false when amount is zero.
func DirectionFor(axis Axis, amount float32) (d Direction, ok bool) {
	switch {
	case amount < 0 && axis == Horizontal:
		return Left, true
	case amount > 0 && axis == Horizontal:
		return Right, true
	case amount < 0:
		return Up, true
	case amount > 0:
		return Down, true
	}
	return 0, false
}

// DirectionMask is a set of directions.
type DirectionMask uint8

// AllDirections contains every direction.
const AllDirections DirectionMask = 1<<NumDirections - 1

// MaskOf builds a mask from the given directions.
func MaskOf(dirs ...Direction) DirectionMask {
	var m DirectionMask
	for _, d := range dirs {
		m |= 1 << d
	}
	return m
}

// Has reports whether d is in the mask.
func (m DirectionMask) Has(d Direction) bool {
	return m&(1<<d) != 0
}

// OrAll maps the empty mask to AllDirections.
func (m DirectionMask) OrAll() DirectionMask {
	if m == 0 {
		return AllDirections
	}
	return m
}
