package render

import (
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/font"

	bdcolor "github.com/matzehuels/backdrop/pkg/core/color"
	"github.com/matzehuels/backdrop/pkg/core/gradient"
	"github.com/matzehuels/backdrop/pkg/core/layout"
)

// CornerTexts are optional labels anchored to the four canvas corners.
type CornerTexts struct {
	TopLeft     string `json:"topLeft" toml:"top_left"`
	TopRight    string `json:"topRight" toml:"top_right"`
	BottomLeft  string `json:"bottomLeft" toml:"bottom_left"`
	BottomRight string `json:"bottomRight" toml:"bottom_right"`
}

// IsZero reports whether no corner carries text.
func (c CornerTexts) IsZero() bool {
	return strings.TrimSpace(c.TopLeft+c.TopRight+c.BottomLeft+c.BottomRight) == ""
}

// TextSettings control how corner texts are drawn.
type TextSettings struct {
	FontSize  float64 `json:"fontSize" toml:"font_size"`
	TextColor string  `json:"textColor" toml:"text_color"`
	// FontFamily is a catalog font id or a family name.
	FontFamily  string  `json:"fontFamily" toml:"font_family"`
	TextOpacity float64 `json:"textOpacity" toml:"text_opacity"`
	// TextGradient is a catalog text gradient id, a linear-gradient string,
	// or "none" for flat TextColor.
	TextGradient string `json:"textGradient" toml:"text_gradient"`
}

// DefaultTextSettings are used for fields left zero by callers.
var DefaultTextSettings = TextSettings{
	FontSize:     24,
	TextColor:    "#000000",
	FontFamily:   "font-geist-sans",
	TextOpacity:  1,
	TextGradient: "none",
}

// MinTextInset is the smallest distance between corner text and the edge.
const MinTextInset = 16

type label struct {
	text   string
	x, y   float64
	right  bool
	bottom bool
}

func (c CornerTexts) labels(size layout.Size, inset float64) []label {
	all := []label{
		{text: c.TopLeft, x: inset, y: inset},
		{text: c.TopRight, x: size.Width - inset, y: inset, right: true},
		{text: c.BottomLeft, x: inset, y: size.Height - inset, bottom: true},
		{text: c.BottomRight, x: size.Width - inset, y: size.Height - inset, right: true, bottom: true},
	}
	out := all[:0]
	for _, l := range all {
		if strings.TrimSpace(l.text) != "" {
			out = append(out, l)
		}
	}
	return out
}

// DrawCornerTexts draws the non-empty corner labels inset by a quarter of
// the padding, never closer than MinTextInset. Top labels hang from their
// anchor and bottom labels sit on it. A resolvable text gradient fills the
// glyphs; otherwise they use TextColor at TextOpacity.
func DrawCornerTexts(s *Surface, texts CornerTexts, ts TextSettings, padding float64, env Env) {
	inset := math.Max(MinTextInset, padding*0.25)
	labels := texts.labels(s.size, inset)
	if len(labels) == 0 {
		return
	}
	size := ts.FontSize
	if size <= 0 {
		size = DefaultTextSettings.FontSize
	}
	opacity := math.Max(0, math.Min(1, ts.TextOpacity))
	if opacity == 0 {
		return
	}
	face := env.face(ts.FontFamily, size*s.ratio)

	if css := env.textGradient(ts.TextGradient); css != "" && drawGradientText(s, labels, face, css, opacity) {
		return
	}
	c, ok := bdcolor.Parse(ts.TextColor)
	if !ok {
		c = bdcolor.Black
	}
	c = bdcolor.WithAlpha(c, opacity)
	for _, l := range labels {
		drawLabel(s, face, l, c)
	}
}

// drawGradientText paints the first non-grid layer of css through the
// glyph shapes. It reports false when css yields no such layer.
func drawGradientText(s *Surface, labels []label, face font.Face, css string, opacity float64) bool {
	var info gradient.Info
	for _, l := range gradient.ParseAll(css, s.size.Width, s.size.Height, nil) {
		if l.Kind() != gradient.KindGrid {
			info = l
			break
		}
	}
	if info == nil {
		return false
	}
	fill := NewSurface(s.size, s.ratio)
	drawLayer(fill, info, bdcolor.Parse)

	glyphs := NewSurface(s.size, s.ratio)
	ink := bdcolor.WithAlpha(bdcolor.Black, opacity)
	for _, l := range labels {
		drawLabel(glyphs, face, l, ink)
	}
	destinationIn(fill.Image(), glyphs.Image())
	s.drawDevice(fill.Image())
	return true
}

// drawLabel renders text in device space so glyphs are rasterized at the
// backing resolution.
func drawLabel(s *Surface, face font.Face, l label, c color.NRGBA) {
	dc := s.dc
	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.SetFontFace(face)
	dc.SetColor(c)

	m := face.Metrics()
	x, y := l.x*s.ratio, l.y*s.ratio
	if l.right {
		w, _ := dc.MeasureString(l.text)
		x -= w
	}
	if l.bottom {
		y -= float64(m.Descent.Ceil())
	} else {
		y += float64(m.Ascent.Ceil())
	}
	dc.DrawString(l.text, x, y)
}
