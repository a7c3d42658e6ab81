// Package color parses the CSS color literals that appear in background
// descriptors and derives mask alpha values from them.
//
// Only the vocabulary produced by the pattern catalog is understood: hex
// literals (#rgb, #rgba, #rrggbb, #rrggbbaa), rgb()/rgba() in comma or space
// syntax, and a handful of keywords. Anything else fails to parse and callers
// skip it.
package color

import (
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// Transparent is fully transparent black.
	Transparent = color.NRGBA{}
	// Black is opaque black, the fill used when no pattern is selected.
	Black = color.NRGBA{A: 0xff}
	// White is opaque white, the inferred base for light descriptors.
	White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

var keywords = map[string]color.NRGBA{
	"transparent": Transparent,
	"black":       Black,
	"white":       White,
	"red":         {R: 0xff, A: 0xff},
	"green":       {G: 0x80, A: 0xff},
	"blue":        {B: 0xff, A: 0xff},
	"gray":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// Keywords returns the named colors Parse understands, sorted.
func Keywords() []string {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses a CSS color literal. The boolean is false when s is not a
// color this package understands.
func Parse(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := keywords[s]; ok {
		return c, true
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseRGB(s)
	}
	return color.NRGBA{}, false
}

// HasAlpha reports whether the literal carries an explicit alpha channel.
func HasAlpha(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return len(s) == 5 || len(s) == 9
	case strings.HasPrefix(s, "rgb"):
		_, args, ok := splitFunc(s)
		return ok && len(args) == 4
	}
	return false
}

// MaskAlpha converts a color literal to the alpha it contributes to a
// luminance mask. Darker colors are more opaque; an explicit alpha channel
// wins over luminance. transparent is 0 and unparseable literals are 1.
func MaskAlpha(s string) float64 {
	c, ok := Parse(s)
	if !ok {
		return 1
	}
	if strings.EqualFold(strings.TrimSpace(s), "transparent") {
		return 0
	}
	if HasAlpha(s) {
		return float64(c.A) / 255
	}
	return 1 - Luma(c)/255
}

// Luma returns the Rec. 601 luma of c in the range [0,255].
func Luma(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// WithAlpha returns c with its alpha multiplied by a (clamped to [0,1]).
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp01(a)))
	return c
}

func parseHex(s string) (color.NRGBA, bool) {
	digits := s[1:]
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return color.NRGBA{}, false
		}
	}
	alpha := "ff"
	switch len(digits) {
	case 3:
	case 4:
		alpha = strings.Repeat(digits[3:], 2)
		digits = digits[:3]
	case 6:
	case 8:
		alpha = digits[6:]
		digits = digits[:6]
	default:
		return color.NRGBA{}, false
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return color.NRGBA{}, false
	}
	a, err := strconv.ParseUint(alpha, 16, 8)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a)}, true
}

func parseRGB(s string) (color.NRGBA, bool) {
	_, args, ok := splitFunc(s)
	if !ok || len(args) < 3 || len(args) > 4 {
		return color.NRGBA{}, false
	}
	var ch [3]uint8
	for i := range 3 {
		v, ok := channel(args[i])
		if !ok {
			return color.NRGBA{}, false
		}
		ch[i] = v
	}
	a := 1.0
	if len(args) == 4 {
		v, ok := number(args[3], 1)
		if !ok {
			return color.NRGBA{}, false
		}
		a = clamp01(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(math.Round(a * 255))}, true
}

// splitFunc splits "rgb(1, 2, 3)" or "rgb(1 2 3 / 50%)" into its name and
// arguments.
func splitFunc(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(s[:open])
	body := strings.NewReplacer(",", " ", "/", " ").Replace(s[open+1 : len(s)-1])
	return name, strings.Fields(body), true
}

func channel(s string) (uint8, bool) {
	v, ok := number(s, 255)
	if !ok {
		return 0, false
	}
	return uint8(math.Round(math.Max(0, math.Min(255, v)))), true
}

// number parses a plain or percentage value; percentages scale to full.
func number(s string, full float64) (float64, bool) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		return v / 100 * full, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
