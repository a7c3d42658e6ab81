package gradient

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	bdcolor "github.com/matzehuels/backdrop/pkg/core/color"
)

// stopPattern matches a color token optionally followed by one or two
// positions. A bare number (no unit) is read as a percentage. Named colors
// are the ones the color package parses.
var stopPattern = regexp.MustCompile(
	`(#[0-9a-fA-F]{3,8}\b|rgba?\([^)]*\)|\b(?i:` + strings.Join(bdcolor.Keywords(), "|") + `)\b)` +
		`(?:\s*(-?[\d.]+)(%|px)?)?` +
		`(?:\s+(-?[\d.]+)(%|px)?)?`)

// rawStop is a color stop before unit resolution.
type rawStop struct {
	color string
	value float64
	unit  string
	has   bool
}

// ResolveStops extracts the color stops of a gradient argument string and
// normalizes their offsets. maxExtent is the length in pixels that a px
// offset is measured against (gradient length, radius or repeat size).
// Stops without a position are spaced evenly by index. Every offset is
// clamped to [0,1]; stops that cannot be resolved are dropped.
func ResolveStops(args string, maxExtent float64) []Stop {
	return resolveStops(extractStops(args), maxExtent)
}

func extractStops(args string) []rawStop {
	var out []rawStop
	for _, m := range stopPattern.FindAllStringSubmatch(args, -1) {
		first := rawStop{color: m[1]}
		if v, ok := parseNumber(m[2]); ok {
			first.value, first.unit, first.has = v, m[3], true
		}
		out = append(out, first)
		// "color a b" is shorthand for two stops of the same color.
		if v, ok := parseNumber(m[4]); ok && first.has {
			out = append(out, rawStop{color: m[1], value: v, unit: m[5], has: true})
		}
	}
	return out
}

func resolveStops(raws []rawStop, maxExtent float64) []Stop {
	stops := make([]Stop, 0, len(raws))
	n := len(raws)
	for i, r := range raws {
		var off float64
		switch {
		case !r.has:
			if n > 1 {
				off = float64(i) / float64(n-1)
			}
		case r.unit == "px":
			if maxExtent <= 0 {
				continue
			}
			off = r.value / maxExtent
		default:
			off = r.value / 100
		}
		if math.IsNaN(off) || math.IsInf(off, 0) {
			continue
		}
		stops = append(stops, Stop{Offset: clamp01(off), Color: r.color})
	}
	return stops
}

// largestPx returns the largest px-valued position among raws.
func largestPx(raws []rawStop) (float64, bool) {
	var (
		size  float64
		found bool
	)
	for _, r := range raws {
		if r.has && r.unit == "px" && r.value > size {
			size, found = r.value, true
		}
	}
	return size, found
}

// replicate repeats one cycle of stops (offsets relative to period) across a
// gradient line of the given length.
func replicate(cycle []Stop, period, length float64) []Stop {
	if period <= 0 || length <= 0 || len(cycle) == 0 {
		return cycle
	}
	cycles := int(math.Ceil(length/period - 1e-9))
	out := make([]Stop, 0, cycles*len(cycle))
	for k := range cycles {
		for _, s := range cycle {
			off := (float64(k) + s.Offset) * period / length
			if off > 1+1e-9 {
				return out
			}
			out = append(out, Stop{Offset: clamp01(off), Color: s.Color})
		}
	}
	return out
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
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
