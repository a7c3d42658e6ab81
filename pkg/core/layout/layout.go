// Package layout computes output canvas sizes and image placement.
//
// Two sizing modes exist. An auto format sizes the canvas to the image plus
// padding on every side and draws the image at native size. A fixed format
// keeps the canvas at the format size and contain-fits the image inside the
// padded area, centered.
//
// The logical canvas size is separate from the physical backing store, which
// is the logical size times a pixel ratio clamped to [1, MaxPixelRatio].
package layout

import "math"

// MaxPixelRatio caps the backing store density.
const MaxPixelRatio = 2

// DefaultCanvasSize is used when an auto format has no image to size to.
var DefaultCanvasSize = Size{Width: 1200, Height: 800}

// Size is a size in logical pixels.
type Size struct {
	Width, Height float64
}

// Format is an output size. A Format with ID "auto" or a non-positive
// dimension sizes the canvas to the image.
type Format struct {
	ID            string
	Width, Height float64
}

// Auto is the image-sized format.
var Auto = Format{ID: "auto"}

// IsAuto reports whether f sizes the canvas to the image.
func (f Format) IsAuto() bool {
	return f.ID == "auto" || f.Width <= 0 || f.Height <= 0
}

// ImageLayout places the image inside the output canvas.
type ImageLayout struct {
	CanvasWidth, CanvasHeight float64
	DrawWidth, DrawHeight     float64
	X, Y                      float64
}

// ComputeImageLayout lays out an image of the given size. Negative padding
// counts as zero and image dimensions are at least 1.
func ComputeImageLayout(img Size, f Format, padding float64) ImageLayout {
	p := math.Max(0, padding)
	iw := math.Max(1, img.Width)
	ih := math.Max(1, img.Height)

	if f.IsAuto() {
		return ImageLayout{
			CanvasWidth:  iw + 2*p,
			CanvasHeight: ih + 2*p,
			DrawWidth:    iw,
			DrawHeight:   ih,
			X:            p,
			Y:            p,
		}
	}

	availW := math.Max(1, f.Width-2*p)
	availH := math.Max(1, f.Height-2*p)
	scale := math.Min(availW/iw, availH/ih)
	dw, dh := iw*scale, ih*scale
	return ImageLayout{
		CanvasWidth:  f.Width,
		CanvasHeight: f.Height,
		DrawWidth:    dw,
		DrawHeight:   dh,
		X:            (f.Width - dw) / 2,
		Y:            (f.Height - dh) / 2,
	}
}

// ResolveCanvasSize returns the canvas size used when there is no image:
// the format size, or DefaultCanvasSize for auto.
func ResolveCanvasSize(f Format) Size {
	if f.IsAuto() {
		return DefaultCanvasSize
	}
	return Size{Width: f.Width, Height: f.Height}
}

// PixelRatio clamps a device pixel ratio to [1, MaxPixelRatio]. Zero and
// NaN mean 1.
func PixelRatio(dpr float64) float64 {
	if math.IsNaN(dpr) {
		return 1
	}
	return math.Max(1, math.Min(MaxPixelRatio, dpr))
}

// BackingSize returns the physical pixel count for a logical length.
func BackingSize(logical, ratio float64) int {
	return max(1, int(math.Round(logical*PixelRatio(ratio))))
}

// Pixels rounds a logical length to whole export pixels, at least 1.
func Pixels(logical float64) int {
	return max(1, int(math.Round(logical)))
}
