package render

import (
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/backdrop/pkg/core/layout"
)

// Export returns the surface at its logical size in whole pixels. A backing
// store that already matches is returned as is; otherwise it is resampled.
func Export(s *Surface) image.Image {
	w := layout.Pixels(s.size.Width)
	h := layout.Pixels(s.size.Height)
	img := s.Image()
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// Preview scales the exported image to percent of its size.
func Preview(s *Surface, percent float64) image.Image {
	img := Export(s)
	if percent <= 0 || percent >= 100 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*percent/100)))
	h := max(1, int(math.Round(float64(b.Dy())*percent/100)))
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG writes the export of s as PNG.
func EncodePNG(w io.Writer, s *Surface) error {
	return imaging.Encode(w, Export(s), imaging.PNG)
}
