// Package paint provides gradient fills for gg contexts.
//
// gg's built-in gradients sample whole device pixels and sort their stops,
// which reorders the coincident stops that hard-edged stripes depend on. The
// patterns here keep stops in insertion order, sample at pixel centers, map
// device pixels back to logical coordinates and support elliptical radial
// gradients through a non-uniform scale around the center.
package paint

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/backdrop/pkg/core/gradient"
)

// Stop is a color stop with a parsed color.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// ColorFunc converts a CSS color literal to a concrete color.
type ColorFunc func(string) (color.NRGBA, bool)

// Stops converts resolved gradient stops. Stops whose color conv rejects
// are skipped. Offsets are made non-decreasing, so a stop placed before its
// predecessor moves up to it as in CSS.
func Stops(in []gradient.Stop, conv ColorFunc) []Stop {
	out := make([]Stop, 0, len(in))
	last := 0.0
	for _, s := range in {
		c, ok := conv(s.Color)
		if !ok {
			continue
		}
		off := math.Max(0, math.Min(1, s.Offset))
		if len(out) > 0 && off < last {
			off = last
		}
		last = off
		out = append(out, Stop{Offset: off, Color: c})
	}
	return out
}

// Linear is a linear gradient along the line (X1,Y1)-(X2,Y2) in logical
// coordinates.
type Linear struct {
	X1, Y1, X2, Y2 float64
	Stops          []Stop
	// Scale is the number of device pixels per logical pixel.
	Scale float64
}

// ColorAt implements gg.Pattern.
func (g *Linear) ColorAt(x, y int) color.Color {
	px, py := logical(x, y, g.Scale)
	dx, dy := g.X2-g.X1, g.Y2-g.Y1
	den := dx*dx + dy*dy
	if den == 0 {
		return At(g.Stops, 0)
	}
	return At(g.Stops, ((px-g.X1)*dx+(py-g.Y1)*dy)/den)
}

// Radial is a radial gradient centered at (CX,CY). When RX and RY are both
// positive the circle of Radius is scaled into an RX x RY ellipse.
type Radial struct {
	CX, CY, Radius float64
	RX, RY         float64
	Stops          []Stop
	Scale          float64
}

// ColorAt implements gg.Pattern.
func (g *Radial) ColorAt(x, y int) color.Color {
	if g.Radius <= 0 {
		return At(g.Stops, 1)
	}
	px, py := logical(x, y, g.Scale)
	dx, dy := px-g.CX, py-g.CY
	if g.RX > 0 && g.RY > 0 {
		dx *= g.Radius / g.RX
		dy *= g.Radius / g.RY
	}
	return At(g.Stops, math.Hypot(dx, dy)/g.Radius)
}

// At returns the color at offset t. Offsets outside the stops take the
// nearest end color; at a hard stop the later stop wins. Interpolation is
// done on premultiplied components.
func At(stops []Stop, t float64) color.Color {
	switch n := len(stops); {
	case n == 0:
		return color.Transparent
	case t <= stops[0].Offset:
		return stops[0].Color
	case t >= stops[n-1].Offset:
		return stops[n-1].Color
	}
	for i := 0; i < len(stops)-1; i++ {
		a, b := stops[i], stops[i+1]
		if t < b.Offset {
			return lerp(a.Color, b.Color, (t-a.Offset)/(b.Offset-a.Offset))
		}
	}
	return stops[len(stops)-1].Color
}

func lerp(a, b color.NRGBA, t float64) color.Color {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	mix := func(x, y uint32) uint16 {
		return uint16(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA64{R: mix(ar, br), G: mix(ag, bg), B: mix(ab, bb), A: mix(aa, ba)}
}

func logical(x, y int, scale float64) (float64, float64) {
	if scale <= 0 {
		scale = 1
	}
	return (float64(x) + 0.5) / scale, (float64(y) + 0.5) / scale
}

var (
	_ gg.Pattern = (*Linear)(nil)
	_ gg.Pattern = (*Radial)(nil)
)
