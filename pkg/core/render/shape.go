package render

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	bdcolor "github.com/matzehuels/backdrop/pkg/core/color"
	"github.com/matzehuels/backdrop/pkg/core/layout"
)

// RoundRect adds a rounded rectangle to the current path. The radius is
// clamped to half the shorter side and corners are quadratic curves.
func RoundRect(dc *gg.Context, x, y, w, h, r float64) {
	r = math.Max(0, math.Min(r, math.Min(w, h)/2))
	dc.NewSubPath()
	dc.MoveTo(x+r, y)
	dc.LineTo(x+w-r, y)
	dc.QuadraticTo(x+w, y, x+w, y+r)
	dc.LineTo(x+w, y+h-r)
	dc.QuadraticTo(x+w, y+h, x+w-r, y+h)
	dc.LineTo(x+r, y+h)
	dc.QuadraticTo(x, y+h, x, y+h-r)
	dc.LineTo(x, y+r)
	dc.QuadraticTo(x, y, x+r, y)
	dc.ClosePath()
}

// ShadowSettings describe the drop shadow behind the image.
type ShadowSettings struct {
	ShadowColor   string  `json:"shadowColor" toml:"shadow_color"`
	ShadowOffsetX float64 `json:"shadowOffsetX" toml:"shadow_offset_x"`
	ShadowOffsetY float64 `json:"shadowOffsetY" toml:"shadow_offset_y"`
	// FillStyle is the color of the rectangle casting the shadow. Its alpha
	// scales the shadow; a fully transparent fill casts none.
	FillStyle string `json:"fillStyle" toml:"fill_style"`
}

// DefaultShadowSettings matches a soft shadow dropped 10px below the image.
var DefaultShadowSettings = ShadowSettings{
	ShadowColor:   "rgba(0, 0, 0, 0.4)",
	ShadowOffsetX: 0,
	ShadowOffsetY: 10,
	FillStyle:     "rgba(0, 0, 0, 0.5)",
}

// DrawShadow fills a rounded rectangle with a blurred drop shadow. blur is
// in logical pixels and zero disables the shadow.
func DrawShadow(s *Surface, x, y, w, h, radius, blur float64, ss ShadowSettings) {
	if blur <= 0 || w <= 0 || h <= 0 {
		return
	}
	sc, ok := bdcolor.Parse(ss.ShadowColor)
	if !ok {
		sc, _ = bdcolor.Parse(DefaultShadowSettings.ShadowColor)
	}
	fill, ok := bdcolor.Parse(ss.FillStyle)
	if !ok {
		fill = bdcolor.Black
	}
	if fill.A == 0 || sc.A == 0 {
		return
	}
	sc = bdcolor.WithAlpha(sc, float64(fill.A)/255)

	layer := NewSurface(s.size, s.ratio)
	layer.dc.SetColor(sc)
	RoundRect(layer.dc, x+ss.ShadowOffsetX, y+ss.ShadowOffsetY, w, h, radius)
	layer.dc.Fill()
	s.drawDevice(gaussian(layer.Image(), blur/2*s.ratio))

	s.dc.SetColor(fill)
	RoundRect(s.dc, x, y, w, h, radius)
	s.dc.Fill()
}

// gaussian blurs img with the given sigma in device pixels. Large sigmas
// blur a downscaled copy and scale it back up.
func gaussian(img image.Image, sigma float64) image.Image {
	if sigma <= 0 {
		return img
	}
	k := math.Floor(sigma / 8)
	if k <= 1 {
		return imaging.Blur(img, sigma)
	}
	b := img.Bounds()
	sw := max(1, int(float64(b.Dx())/k))
	sh := max(1, int(float64(b.Dy())/k))
	small := imaging.Blur(imaging.Resize(img, sw, sh, imaging.Box), sigma/k)
	return imaging.Resize(small, b.Dx(), b.Dy(), imaging.Linear)
}

// DrawImage draws img into the layout rectangle, clipped to the rounded
// corners. The image is resampled once to the device-pixel draw size.
func DrawImage(s *Surface, img image.Image, l layout.ImageLayout, radius float64) {
	dw := layout.BackingSize(l.DrawWidth, s.ratio)
	dh := layout.BackingSize(l.DrawHeight, s.ratio)
	resized := imaging.Resize(img, dw, dh, imaging.Lanczos)

	dc := s.dc
	dc.Push()
	RoundRect(dc, l.X, l.Y, l.DrawWidth, l.DrawHeight, radius)
	dc.Clip()
	dc.Identity()
	dc.DrawImage(resized, int(math.Round(l.X*s.ratio)), int(math.Round(l.Y*s.ratio)))
	dc.Pop()
	dc.ResetClip()
}
