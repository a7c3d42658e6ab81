// Package gradient turns CSS background-image strings into resolved gradient
// geometry.
//
// The parser understands the closed vocabulary used by the pattern catalog:
// linear-gradient, radial-gradient and their repeating variants, with degree
// and "to <side>" angles, percentage and pixel stops, circle and ellipse
// radial shapes, "at X Y" positioning and background-size tiles. It is not a
// general CSS parser.
//
// # Usage
//
//	tiles := gradient.ParseSizes("20px 20px")
//	for _, info := range gradient.ParseAll(src, 1200, 630, tiles) {
//	    switch g := info.(type) {
//	    case gradient.Linear:
//	        // g.X1, g.Y1, g.X2, g.Y2, g.Stops
//	    case gradient.Grid:
//	        // g.Direction, g.TileWidth
//	    }
//	}
//
// All geometry is in absolute logical pixels, relative either to the full
// canvas or to the declared tile when one exists. Layers are returned in
// scan order; callers paint the first layer first.
package gradient

// Kind identifies a gradient variant.
type Kind int

const (
	KindLinear Kind = iota
	KindRadial
	KindRepeatingLinear
	KindRepeatingRadial
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindRadial:
		return "radial"
	case KindRepeatingLinear:
		return "repeating-linear"
	case KindRepeatingRadial:
		return "repeating-radial"
	case KindGrid:
		return "grid"
	}
	return "unknown"
}

// Stop is a color stop with its offset normalized to [0,1].
type Stop struct {
	Offset float64
	Color  string
}

// Size is a tile size in logical pixels. The zero Size means "no tile".
type Size struct {
	Width, Height float64
}

// IsZero reports whether s declares no tile.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Info is one resolved background layer: Linear, Radial, RepeatingLinear,
// RepeatingRadial or Grid.
type Info interface {
	Kind() Kind
	// Tile returns the repeat unit, or the zero Size when the layer fills
	// the canvas directly.
	Tile() Size
	isInfo()
}

// Linear is a linear-gradient layer. The gradient line runs from (X1,Y1) to
// (X2,Y2).
type Linear struct {
	X1, Y1, X2, Y2        float64
	Stops                 []Stop
	TileWidth, TileHeight float64
}

// Radial is a radial-gradient layer. RX and RY are set only for the ellipse
// form, in which case Radius is max(RX, RY).
type Radial struct {
	CX, CY, Radius        float64
	RX, RY                float64
	Stops                 []Stop
	TileWidth, TileHeight float64
}

// Ellipse reports whether r needs non-uniform scaling.
func (r Radial) Ellipse() bool { return r.RX > 0 && r.RY > 0 }

// RepeatingLinear is a repeating-linear-gradient resolved to a single
// seamless tile. Stops are already replicated across the gradient line.
type RepeatingLinear struct {
	X1, Y1, X2, Y2        float64
	Stops                 []Stop
	TileWidth, TileHeight float64
}

// RepeatingRadial is a repeating-radial-gradient scoped to a tile. Stops are
// already replicated out to Radius.
type RepeatingRadial struct {
	CX, CY, Radius        float64
	Stops                 []Stop
	TileWidth, TileHeight float64
}

// Direction is the stroke direction of a Grid layer.
type Direction int

const (
	Vertical Direction = iota
	Horizontal
	Diagonal45
	Diagonal135
)

func (d Direction) String() string {
	switch d {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	case Diagonal45:
		return "diagonal-45"
	case Diagonal135:
		return "diagonal-135"
	}
	return "unknown"
}

// Grid is a 1px-stripe linear gradient reinterpreted as evenly spaced lines.
type Grid struct {
	Color                 string
	TileWidth, TileHeight float64
	Direction             Direction
}

func (Linear) Kind() Kind          { return KindLinear }
func (Radial) Kind() Kind          { return KindRadial }
func (RepeatingLinear) Kind() Kind { return KindRepeatingLinear }
func (RepeatingRadial) Kind() Kind { return KindRepeatingRadial }
func (Grid) Kind() Kind            { return KindGrid }

func (g Linear) Tile() Size          { return Size{g.TileWidth, g.TileHeight} }
func (g Radial) Tile() Size          { return Size{g.TileWidth, g.TileHeight} }
func (g RepeatingLinear) Tile() Size { return Size{g.TileWidth, g.TileHeight} }
func (g RepeatingRadial) Tile() Size { return Size{g.TileWidth, g.TileHeight} }
func (g Grid) Tile() Size            { return Size{g.TileWidth, g.TileHeight} }

func (Linear) isInfo()          {}
func (Radial) isInfo()          {}
func (RepeatingLinear) isInfo() {}
func (RepeatingRadial) isInfo() {}
func (Grid) isInfo()            {}
