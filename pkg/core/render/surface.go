package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"

	"github.com/matzehuels/backdrop/pkg/core/layout"
)

// Surface is a drawing target with a logical size and a pixel-ratio scaled
// backing store. All drawing through Context uses logical coordinates.
type Surface struct {
	dc    *gg.Context
	size  layout.Size
	ratio float64
}

// NewSurface allocates a surface of the given logical size. pixelRatio is
// clamped with layout.PixelRatio.
func NewSurface(size layout.Size, pixelRatio float64) *Surface {
	ratio := layout.PixelRatio(pixelRatio)
	dc := gg.NewContext(layout.BackingSize(size.Width, ratio), layout.BackingSize(size.Height, ratio))
	dc.Scale(ratio, ratio)
	return &Surface{dc: dc, size: size, ratio: ratio}
}

// Size returns the logical size stamped on the surface.
func (s *Surface) Size() layout.Size { return s.size }

// PixelRatio returns the backing store density.
func (s *Surface) PixelRatio() float64 { return s.ratio }

// Context returns the underlying gg context.
func (s *Surface) Context() *gg.Context { return s.dc }

// Image returns the backing store.
func (s *Surface) Image() *image.RGBA { return s.dc.Image().(*image.RGBA) }

// fillDevice fills every backing-store pixel with p.
func (s *Surface) fillDevice(p gg.Pattern) {
	b := s.Image().Bounds()
	s.dc.Push()
	s.dc.Identity()
	s.dc.SetFillStyle(p)
	s.dc.DrawRectangle(0, 0, float64(b.Dx()), float64(b.Dy()))
	s.dc.Fill()
	s.dc.Pop()
}

func (s *Surface) fillColor(c color.Color) {
	s.fillDevice(gg.NewSolidPattern(c))
}

// drawDevice composites img (in device pixels) over the surface.
func (s *Surface) drawDevice(img image.Image) {
	s.dc.Push()
	s.dc.Identity()
	s.dc.DrawImage(img, 0, 0)
	s.dc.Pop()
}

// destinationIn keeps dst only where mask is opaque, scaling each pixel by
// the mask alpha.
func destinationIn(dst *image.RGBA, mask image.Image) {
	src := image.NewRGBA(dst.Bounds())
	copy(src.Pix, dst.Pix)
	draw.DrawMask(dst, dst.Bounds(), src, dst.Bounds().Min, mask, dst.Bounds().Min, draw.Src)
}
