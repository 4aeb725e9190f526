// Package sexp provides shared S-expression infrastructure for KiCad files:
// common geometry and text types, navigation helpers over kicadsexp trees
// and the number/string formatting used when writing documents.
package sexp

// Schematic grid constants, in millimetres.
const (
	// GridMM is the KiCad default schematic connection grid (50 mil).
	GridMM = 1.27
	// InchMM is one inch, the spacing used for coarse placement.
	InchMM = 25.4
)

// Position represents a 2D coordinate in millimetres.
// On a schematic sheet Y grows downwards; inside a library symbol Y grows
// upwards.
type Position struct {
	X float64
	Y float64
}

// Add returns p offset by q.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y}
}

// Snap rounds both coordinates to the nearest multiple of grid.
func (p Position) Snap(grid float64) Position {
	return Position{X: snap(p.X, grid), Y: snap(p.Y, grid)}
}

func snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	n := v / grid
	if n < 0 {
		n -= 0.5
	} else {
		n += 0.5
	}
	return RoundMM(float64(int64(n)) * grid)
}

// Angle represents rotation in degrees
type Angle float64

// PositionAngle combines position with rotation, as in (at X Y ANGLE)
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions
type Size struct {
	Width  float64
	Height float64
}

// Stroke defines line appearance, as in (stroke (width 0) (type default))
type Stroke struct {
	Width float64
	Type  string
}

// DefaultStroke is the stroke KiCad writes for plain wires.
var DefaultStroke = Stroke{Width: 0, Type: "default"}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Position
	Max Position
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: 1e9, Y: 1e9},
		Max: Position{X: -1e9, Y: -1e9},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Contains checks if a position is within the bounding box
func (bb BoundingBox) Contains(pos Position) bool {
	return pos.X >= bb.Min.X && pos.X <= bb.Max.X &&
		pos.Y >= bb.Min.Y && pos.Y <= bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos Position) {
	if pos.X < bb.Min.X {
		bb.Min.X = pos.X
	}
	if pos.Y < bb.Min.Y {
		bb.Min.Y = pos.Y
	}
	if pos.X > bb.Max.X {
		bb.Max.X = pos.X
	}
	if pos.Y > bb.Max.Y {
		bb.Max.Y = pos.Y
	}
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// UUID is a KiCad object identifier. It is written unquoted.
type UUID string

// Font describes text size, as in (font (size 1.27 1.27))
type Font struct {
	Size Size
}

// Effects holds text rendering options for a property
type Effects struct {
	Font Font
	Hide bool
}

// DefaultEffects is the text style KiCad uses for symbol fields.
var DefaultEffects = Effects{Font: Font{Size: Size{Width: 1.27, Height: 1.27}}}

// Property is a symbol field such as Reference, Value or Footprint
type Property struct {
	Key      string
	Value    string
	Position PositionAngle
	Effects  Effects
}
