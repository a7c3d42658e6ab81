// Package render composites screenshots onto generated backgrounds.
//
// A [Surface] is a fogleman/gg context whose backing store is scaled by the
// device pixel ratio (at most [layout.MaxPixelRatio]). Drawing happens in
// logical pixels; gradients are sampled per device pixel.
//
// # Pipeline
//
// [Compose] runs the full sequence for one request:
//
//  1. [DrawBackground] fills the base color, paints every gradient layer of
//     the pattern in order, then applies its mask.
//  2. [DrawShadow] drops a blurred shadow under the image rectangle.
//  3. [DrawImage] draws the screenshot clipped to rounded corners.
//  4. [DrawCornerTexts] places up to four corner labels.
//
// [Export] and [EncodePNG] produce the logical-size PNG. [Drawer] wraps
// Compose for callers that redraw as settings change: it loads images in the
// background and discards results that a newer draw has superseded.
package render
