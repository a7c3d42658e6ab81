package render

import (
	"image/color"
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/backdrop/pkg/catalog"
	bdcolor "github.com/matzehuels/backdrop/pkg/core/color"
	"github.com/matzehuels/backdrop/pkg/core/gradient"
	"github.com/matzehuels/backdrop/pkg/core/layout"
	"github.com/matzehuels/backdrop/pkg/core/paint"
)

// darkStops are stop colors that mark a gradient as a dark theme.
var darkStops = []string{"#000", "0,0,0", "#020617", "#0a0a0a", "#0f172a", "#1c1917"}

// InferBaseColor picks the color painted under a pattern's gradients: the
// explicit background color, a flat color in the background shorthand, or
// black for dark gradients and white otherwise.
func InferBaseColor(st catalog.Style) string {
	if c := strings.TrimSpace(st.BackgroundColor); c != "" {
		return c
	}
	bg := gradient.Normalize(st.Background)
	if bg == "" {
		return "#ffffff"
	}
	lower := strings.ToLower(bg)
	if strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "rgb") {
		tok, _, _ := strings.Cut(bg, " ")
		if _, ok := bdcolor.Parse(tok); ok {
			return tok
		}
	}
	// "gradient(...), #0f172a" ends with the shorthand's color layer.
	if i := strings.LastIndex(bg, "),"); i >= 0 {
		if tail := bg[i+2:]; !strings.Contains(tail, "(") || strings.HasPrefix(tail, "rgb") {
			if _, ok := bdcolor.Parse(tail); ok {
				return tail
			}
		}
	}
	if strings.Contains(lower, "#000") || strings.Contains(lower, "black") {
		return "#000000"
	}
	if strings.Contains(lower, "gradient") {
		for _, tok := range darkStops {
			if strings.Contains(lower, tok) {
				return "#000000"
			}
		}
	}
	return "#ffffff"
}

// DrawBackground paints a pattern over the whole surface: the base color,
// every gradient layer in scan order, then the mask. baseColor overrides the
// inferred base unless it is empty or "auto". A nil pattern paints black.
func DrawBackground(s *Surface, p *catalog.Pattern, baseColor string) {
	if p == nil {
		s.fillColor(bdcolor.Black)
		return
	}
	st := p.Style

	base := baseColor
	if base == "" || base == "auto" {
		base = InferBaseColor(st)
	}
	c, ok := bdcolor.Parse(base)
	if !ok {
		c = bdcolor.White
	}
	s.fillColor(c)

	if src := st.GradientSource(); strings.Contains(src, "gradient(") {
		tiles := gradient.ParseSizes(st.BackgroundSize)
		for _, info := range gradient.ParseAll(src, s.size.Width, s.size.Height, tiles) {
			drawLayer(s, info, bdcolor.Parse)
		}
	}
	applyMask(s, st)
}

// maskColor renders a stop color as white carrying the stop's mask alpha.
func maskColor(lit string) (color.NRGBA, bool) {
	return bdcolor.WithAlpha(bdcolor.White, bdcolor.MaskAlpha(lit)), true
}

// applyMask resolves the mask gradients into an offscreen surface and keeps
// the surface only where that mask is opaque. The first mask layer is drawn
// as is; later layers intersect with it unless the composite is "add".
func applyMask(s *Surface, st catalog.Style) {
	src := st.MaskSource()
	if !strings.Contains(src, "gradient(") {
		return
	}
	layers := gradient.ParseAll(src, s.size.Width, s.size.Height, gradient.ParseSizes(st.MaskSize))
	if len(layers) == 0 {
		return
	}
	add := strings.Contains(st.MaskComposite, "add") || strings.Contains(st.MaskComposite, "source-over")

	mask := NewSurface(s.size, s.ratio)
	for i, info := range layers {
		if i == 0 || add {
			drawLayer(mask, info, maskColor)
			continue
		}
		layer := NewSurface(s.size, s.ratio)
		drawLayer(layer, info, maskColor)
		destinationIn(mask.Image(), layer.Image())
	}
	destinationIn(s.Image(), mask.Image())
}

// drawLayer fills the whole surface with one gradient layer. Tiled layers
// are rendered once into a tile surface and repeated.
func drawLayer(s *Surface, info gradient.Info, conv paint.ColorFunc) {
	if g, ok := info.(gradient.Grid); ok {
		drawGrid(s, g, conv)
		return
	}
	tile := info.Tile()
	if tile.IsZero() {
		if p := gradientPattern(info, conv, s.ratio); p != nil {
			s.fillDevice(p)
		}
		return
	}
	p := gradientPattern(info, conv, s.ratio)
	if p == nil {
		return
	}
	t := NewSurface(layout.Size{Width: tile.Width, Height: tile.Height}, s.ratio)
	t.fillDevice(p)
	s.fillDevice(gg.NewSurfacePattern(t.Image(), gg.RepeatBoth))
}

// gradientPattern builds the fill for a gradient layer in the coordinate
// space of its tile or canvas. It returns nil when no stop survives.
func gradientPattern(info gradient.Info, conv paint.ColorFunc, ratio float64) gg.Pattern {
	switch g := info.(type) {
	case gradient.Linear:
		stops := paint.Stops(g.Stops, conv)
		if len(stops) == 0 {
			return nil
		}
		return &paint.Linear{X1: g.X1, Y1: g.Y1, X2: g.X2, Y2: g.Y2, Stops: stops, Scale: ratio}
	case gradient.RepeatingLinear:
		stops := paint.Stops(g.Stops, conv)
		if len(stops) == 0 {
			return nil
		}
		return &paint.Linear{X1: g.X1, Y1: g.Y1, X2: g.X2, Y2: g.Y2, Stops: stops, Scale: ratio}
	case gradient.Radial:
		stops := paint.Stops(g.Stops, conv)
		if len(stops) == 0 {
			return nil
		}
		return &paint.Radial{CX: g.CX, CY: g.CY, Radius: g.Radius, RX: g.RX, RY: g.RY, Stops: stops, Scale: ratio}
	case gradient.RepeatingRadial:
		stops := paint.Stops(g.Stops, conv)
		if len(stops) == 0 {
			return nil
		}
		return &paint.Radial{CX: g.CX, CY: g.CY, Radius: g.Radius, Stops: stops, Scale: ratio}
	}
	return nil
}

// drawGrid strokes 1px lines spaced by the tile size. Diagonals start one
// canvas height before the left edge so the whole canvas is covered.
func drawGrid(s *Surface, g gradient.Grid, conv paint.ColorFunc) {
	c, ok := conv(g.Color)
	if !ok {
		return
	}
	w, h := s.size.Width, s.size.Height
	stepX := g.TileWidth
	if stepX <= 0 {
		stepX = gradient.DefaultTileSize
	}
	stepY := g.TileHeight
	if stepY <= 0 {
		stepY = gradient.DefaultTileSize
	}

	dc := s.dc
	dc.SetColor(c)
	dc.SetLineWidth(1)
	switch g.Direction {
	case gradient.Vertical:
		for x := 0.0; x <= w; x += stepX {
			dc.DrawLine(x, 0, x, h)
		}
	case gradient.Horizontal:
		for y := 0.0; y <= h; y += stepY {
			dc.DrawLine(0, y, w, y)
		}
	case gradient.Diagonal45:
		for i := -h; i < w+h; i += stepX {
			dc.DrawLine(i, 0, i+h, h)
		}
	case gradient.Diagonal135:
		for i := -h; i < w+h; i += stepX {
			dc.DrawLine(i, h, i+h, 0)
		}
	}
	dc.Stroke()
}
