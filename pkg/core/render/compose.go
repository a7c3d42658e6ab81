package render

import (
	"image"
	"strings"

	"golang.org/x/image/font"

	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/core/layout"
	"github.com/matzehuels/backdrop/pkg/fonts"
)

// Style is the user-tunable look of a composite.
type Style struct {
	Padding        float64        `json:"padding" toml:"padding"`
	CornerRadius   float64        `json:"cornerRadius" toml:"corner_radius"`
	Shadow         float64        `json:"shadow" toml:"shadow"`
	ShadowSettings ShadowSettings `json:"shadowSettings" toml:"shadow_settings"`
	CornerTexts    CornerTexts    `json:"cornerTexts" toml:"corner_texts"`
	TextSettings   TextSettings   `json:"textSettings" toml:"text_settings"`
	// CanvasSize is the preview scale in percent.
	CanvasSize float64 `json:"canvasSize" toml:"canvas_size"`
	// BaseColor overrides the inferred base color unless "auto".
	BaseColor string `json:"baseColor" toml:"base_color"`
}

// DefaultStyle returns the stock look.
func DefaultStyle() Style {
	return Style{
		Padding:        64,
		CornerRadius:   12,
		Shadow:         40,
		ShadowSettings: DefaultShadowSettings,
		TextSettings:   DefaultTextSettings,
		CanvasSize:     50,
		BaseColor:      "auto",
	}
}

// Request describes one composite.
type Request struct {
	// Image is the screenshot. Nil draws the background alone.
	Image image.Image
	// Background is a pattern id; unknown ids paint black.
	Background string
	// Format is a format id; unknown ids mean auto.
	Format             string
	Style              Style
	ShowBackgroundOnly bool
	PixelRatio         float64
}

// Catalog resolves the ids a Request refers to. *catalog.Catalog
// implements it.
type Catalog interface {
	Pattern(id string) (catalog.Pattern, bool)
	Format(id string) (catalog.Format, bool)
	Font(id string) catalog.Font
	TextGradient(id string) (string, bool)
}

// FontSource provides faces for corner text. *fonts.Registry implements it.
type FontSource interface {
	Face(families []string, generic string, size float64) font.Face
}

// Env carries the lookups shared across renders. Zero fields use the
// built-in catalog and a system font registry.
type Env struct {
	Catalog Catalog
	Fonts   FontSource
}

var defaultFonts = fonts.NewRegistry()

func (e Env) withDefaults() Env {
	if e.Catalog == nil {
		e.Catalog = catalog.Default()
	}
	if e.Fonts == nil {
		e.Fonts = defaultFonts
	}
	return e
}

// face resolves a catalog font id or bare family name.
func (e Env) face(family string, size float64) font.Face {
	e = e.withDefaults()
	f := e.Catalog.Font(family)
	families := f.Families
	if family != "" && f.ID != family {
		families = append([]string{family}, families...)
	}
	return e.Fonts.Face(families, f.Generic, size)
}

// textGradient resolves a text gradient id or literal. Empty means none.
func (e Env) textGradient(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "none" {
		return ""
	}
	if g, ok := e.withDefaults().Catalog.TextGradient(v); ok {
		return g
	}
	if strings.Contains(v, "gradient(") {
		return v
	}
	return ""
}

// Compose renders a request. With an image the canvas follows the image
// layout: background, shadow, the clipped image, then corner texts.
// Without one, or with ShowBackgroundOnly, only the background and texts
// are drawn on the resolved canvas size.
func Compose(req Request, env Env) *Surface {
	env = env.withDefaults()
	st := req.Style

	format := layout.Auto
	if f, ok := env.Catalog.Format(req.Format); ok {
		format = f.Spec()
	}
	var pattern *catalog.Pattern
	if p, ok := env.Catalog.Pattern(req.Background); ok {
		pattern = &p
	}

	if req.ShowBackgroundOnly || !hasPixels(req.Image) {
		s := NewSurface(layout.ResolveCanvasSize(format), req.PixelRatio)
		DrawBackground(s, pattern, st.BaseColor)
		DrawCornerTexts(s, st.CornerTexts, st.TextSettings, st.Padding, env)
		return s
	}

	b := req.Image.Bounds()
	l := layout.ComputeImageLayout(layout.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}, format, st.Padding)
	s := NewSurface(layout.Size{Width: l.CanvasWidth, Height: l.CanvasHeight}, req.PixelRatio)
	DrawBackground(s, pattern, st.BaseColor)
	DrawShadow(s, l.X, l.Y, l.DrawWidth, l.DrawHeight, st.CornerRadius, st.Shadow, st.ShadowSettings)
	DrawImage(s, req.Image, l, st.CornerRadius)
	DrawCornerTexts(s, st.CornerTexts, st.TextSettings, st.Padding, env)
	return s
}

func hasPixels(img image.Image) bool {
	return img != nil && !img.Bounds().Empty()
}
