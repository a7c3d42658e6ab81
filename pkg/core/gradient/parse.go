package gradient

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultTileSize is the tile edge used by repeating radial and grid
	// layers when no background-size is declared.
	DefaultTileSize = 40
	// DefaultRepeatSize is the stripe period of a repeating-linear-gradient
	// without px stops.
	DefaultRepeatSize = 8
	// DefaultLinearAngle is the CSS default direction, "to bottom".
	DefaultLinearAngle = 180
)

// axisEpsilon treats direction components below it as zero so that nearly
// axis-aligned stripes do not produce enormous tiles.
const axisEpsilon = 1e-6

var (
	anglePattern   = regexp.MustCompile(`(-?[\d.]+)(deg|turn|rad)\b`)
	gridPattern    = regexp.MustCompile(`(#[0-9a-fA-F]{3,8}|rgba?\([^)]*\))\s+1px\b`)
	circlePxRadius = regexp.MustCompile(`circle\s+(-?[\d.]+)px`)
	sizePair       = regexp.MustCompile(`^(-?[\d.]+)(%|px)\s+(-?[\d.]+)(%|px)$`)
	singleLength   = regexp.MustCompile(`^(-?[\d.]+)px$`)
	ellipseSize    = regexp.MustCompile(`ellipse\s+(-?[\d.]+)(%|px)\s+(-?[\d.]+)(%|px)`)
)

// sideAngles maps "to <side>" keywords to degrees. Corner forms come first so
// "to top right" is not read as "to top".
var sideAngles = []struct {
	keyword string
	angle   float64
}{
	{"to top right", 45},
	{"to right top", 45},
	{"to bottom right", 135},
	{"to right bottom", 135},
	{"to bottom left", 225},
	{"to left bottom", 225},
	{"to top left", 315},
	{"to left top", 315},
	{"to right", 90},
	{"to left", 270},
	{"to bottom", 180},
	{"to top", 0},
}

// ParseAll resolves every gradient layer of a background string against a
// canvas of width x height. tiles holds the background-size of each layer in
// scan order (see ParseSizes); a missing or zero entry means the layer is not
// tiled. Malformed layers are skipped.
func ParseAll(src string, width, height float64, tiles []Size) []Info {
	calls := Scan(Normalize(src))
	out := make([]Info, 0, len(calls))
	for i, c := range calls {
		var tile Size
		if i < len(tiles) {
			tile = tiles[i]
		}
		if info := parseCall(c, width, height, tile); info != nil {
			out = append(out, info)
		}
	}
	return out
}

func parseCall(c Call, width, height float64, tile Size) Info {
	switch c.Kind {
	case KindLinear:
		if g, ok := parseGrid(c.Args, tile); ok {
			return g
		}
		return parseLinear(c.Args, width, height, tile)
	case KindRadial:
		return parseRadial(c.Args, width, height, tile)
	case KindRepeatingLinear:
		return parseRepeatingLinear(c.Args, tile)
	case KindRepeatingRadial:
		return parseRepeatingRadial(c.Args, tile)
	}
	return nil
}

// splitPrelude separates the leading shape/direction argument from the color
// stops. The prelude is empty when the first argument already holds a color.
func splitPrelude(args string) (prelude, stops string) {
	parts := splitTopLevel(args)
	if len(parts) > 1 && !stopPattern.MatchString(parts[0]) {
		return parts[0], strings.Join(parts[1:], ",")
	}
	return "", args
}

// parseAngle reads a CSS gradient angle in degrees from the prelude.
func parseAngle(prelude string, fallback float64) float64 {
	if m := anglePattern.FindStringSubmatch(prelude); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch m[2] {
			case "turn":
				v *= 360
			case "rad":
				v *= 180 / math.Pi
			}
			return math.Mod(math.Mod(v, 360)+360, 360)
		}
	}
	for _, s := range sideAngles {
		if strings.Contains(prelude, s.keyword) {
			return s.angle
		}
	}
	return fallback
}

// direction returns the unit vector of a CSS angle in screen coordinates
// (0deg points up, 90deg points right).
func direction(angle float64) (dx, dy float64) {
	rad := (angle - 90) * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}

func box(width, height float64, tile Size) (float64, float64) {
	if !tile.IsZero() {
		return tile.Width, tile.Height
	}
	return math.Max(1, width), math.Max(1, height)
}

func parseLinear(args string, width, height float64, tile Size) Info {
	prelude, stopArgs := splitPrelude(args)
	w, h := box(width, height, tile)
	dx, dy := direction(parseAngle(prelude, DefaultLinearAngle))
	length := math.Hypot(w, h)
	stops := ResolveStops(stopArgs, length)
	if len(stops) == 0 {
		return nil
	}
	cx, cy := w/2, h/2
	return Linear{
		X1: cx - dx*length/2, Y1: cy - dy*length/2,
		X2: cx + dx*length/2, Y2: cy + dy*length/2,
		Stops:     stops,
		TileWidth: tile.Width, TileHeight: tile.Height,
	}
}

// parseGrid recognizes the 1px-stripe form used for grid papers. The stroke
// color is the color immediately preceding "1px".
func parseGrid(args string, tile Size) (Grid, bool) {
	m := gridPattern.FindStringSubmatch(args)
	if m == nil {
		return Grid{}, false
	}
	prelude, _ := splitPrelude(args)
	g := Grid{
		Color:      m[1],
		TileWidth:  DefaultTileSize,
		TileHeight: DefaultTileSize,
		Direction:  gridDirection(prelude),
	}
	if !tile.IsZero() {
		g.TileWidth, g.TileHeight = tile.Width, tile.Height
	}
	return g, true
}

func gridDirection(prelude string) Direction {
	switch {
	case strings.Contains(prelude, "-45deg"), strings.Contains(prelude, "135deg"):
		return Diagonal135
	case strings.Contains(prelude, "45deg"):
		return Diagonal45
	case strings.Contains(prelude, "to bottom"), strings.Contains(prelude, "to top"),
		prelude == "0deg", prelude == "180deg":
		return Horizontal
	}
	return Vertical
}

// radialShape is the geometry read from a radial prelude before stops are
// resolved.
type radialShape struct {
	cx, cy, radius, rx, ry float64
}

// parseRadialShape resolves center and radius within a w x h box. Without an
// explicit size the radius covers 100% of the larger box edge.
func parseRadialShape(prelude string, w, h float64) radialShape {
	shape, pos, _ := strings.Cut(prelude, "at ")
	shape = strings.TrimSpace(shape)
	s := radialShape{cx: w / 2, cy: h / 2, radius: math.Max(w, h)}
	if pos != "" {
		s.cx, s.cy = parsePosition(pos, w, h)
	}

	switch {
	case ellipseSize.MatchString(shape):
		m := ellipseSize.FindStringSubmatch(shape)
		s.rx = length(m[1], m[2], w)
		s.ry = length(m[3], m[4], h)
		s.radius = math.Max(s.rx, s.ry)
	case circlePxRadius.MatchString(shape):
		m := circlePxRadius.FindStringSubmatch(shape)
		s.radius = length(m[1], "px", 0)
	case sizePair.MatchString(shape):
		m := sizePair.FindStringSubmatch(shape)
		full := math.Max(w, h)
		s.radius = math.Max(length(m[1], m[2], full), length(m[3], m[4], full))
	case singleLength.MatchString(shape):
		m := singleLength.FindStringSubmatch(shape)
		s.radius = length(m[1], "px", 0)
	default:
		if r, ok := extentKeyword(shape, s.cx, s.cy, w, h); ok {
			s.radius = r
		}
	}
	if s.radius <= 0 {
		s.radius = 1
	}
	return s
}

// extentKeyword resolves the CSS radial extent keywords.
func extentKeyword(shape string, cx, cy, w, h float64) (float64, bool) {
	dx := math.Max(cx, w-cx)
	dy := math.Max(cy, h-cy)
	nx := math.Min(math.Abs(cx), math.Abs(w-cx))
	ny := math.Min(math.Abs(cy), math.Abs(h-cy))
	switch {
	case strings.Contains(shape, "closest-side"):
		return math.Min(nx, ny), true
	case strings.Contains(shape, "closest-corner"):
		return math.Hypot(nx, ny), true
	case strings.Contains(shape, "farthest-side"):
		return math.Max(dx, dy), true
	case strings.Contains(shape, "farthest-corner"):
		return math.Hypot(dx, dy), true
	}
	return 0, false
}

// parsePosition resolves "X Y" after "at" into box coordinates. Keywords and
// a single value (second axis centered) are accepted.
func parsePosition(pos string, w, h float64) (float64, float64) {
	fields := strings.Fields(pos)
	if len(fields) == 0 {
		return w / 2, h / 2
	}
	// "top left" style ordering puts the vertical keyword first.
	if len(fields) >= 2 && isVertical(fields[0]) && !isVertical(fields[1]) {
		fields[0], fields[1] = fields[1], fields[0]
	}
	x := positionValue(fields[0], w)
	y := h / 2
	if len(fields) >= 2 {
		y = positionValue(fields[1], h)
	} else if isVertical(fields[0]) {
		x, y = w/2, positionValue(fields[0], h)
	}
	return x, y
}

func isVertical(tok string) bool { return tok == "top" || tok == "bottom" }

func positionValue(tok string, full float64) float64 {
	switch tok {
	case "left", "top":
		return 0
	case "center":
		return full / 2
	case "right", "bottom":
		return full
	}
	if v, ok := strings.CutSuffix(tok, "%"); ok {
		return length(v, "%", full)
	}
	return length(strings.TrimSuffix(tok, "px"), "px", full)
}

// length converts a numeric token to pixels; percentages are of full.
func length(num, unit string, full float64) float64 {
	v, ok := parseNumber(num)
	if !ok {
		return 0
	}
	if unit == "%" {
		return v / 100 * full
	}
	return v
}

func parseRadial(args string, width, height float64, tile Size) Info {
	prelude, stopArgs := splitPrelude(args)
	w, h := box(width, height, tile)
	s := parseRadialShape(prelude, w, h)
	stops := ResolveStops(stopArgs, s.radius)
	if len(stops) == 0 {
		return nil
	}
	return Radial{
		CX: s.cx, CY: s.cy, Radius: s.radius, RX: s.rx, RY: s.ry,
		Stops:     stops,
		TileWidth: tile.Width, TileHeight: tile.Height,
	}
}

func parseRepeatingRadial(args string, tile Size) Info {
	if tile.IsZero() {
		tile = Size{DefaultTileSize, DefaultTileSize}
	}
	prelude, stopArgs := splitPrelude(args)
	s := parseRadialShape(prelude, tile.Width, tile.Height)
	stops := ResolveStops(stopArgs, s.radius)
	if len(stops) == 0 {
		return nil
	}
	// The last stop closes one ring; repeat rings out to the radius.
	if period := stops[len(stops)-1].Offset; period > 0 && period < 1 {
		cycle := make([]Stop, len(stops))
		for i, st := range stops {
			cycle[i] = Stop{Offset: st.Offset / period, Color: st.Color}
		}
		stops = replicate(cycle, period, 1)
	}
	return RepeatingRadial{
		CX: s.cx, CY: s.cy, Radius: s.radius,
		Stops:     stops,
		TileWidth: tile.Width, TileHeight: tile.Height,
	}
}

// parseRepeatingLinear resolves a repeating-linear-gradient into one tile
// that repeats seamlessly. With a declared tile the gradient line is the tile
// diagonal; otherwise the tile is the smallest rectangle whose edges are whole
// stripe periods along the gradient direction.
func parseRepeatingLinear(args string, tile Size) Info {
	prelude, stopArgs := splitPrelude(args)
	raws := extractStops(stopArgs)
	if len(raws) == 0 {
		return nil
	}
	dx, dy := direction(parseAngle(prelude, DefaultLinearAngle))
	repeat, hasPx := largestPx(raws)
	if !hasPx {
		repeat = DefaultRepeatSize
	}

	if !tile.IsZero() {
		w, h := tile.Width, tile.Height
		length := math.Hypot(w, h)
		if !hasPx {
			repeat = length
		}
		cx, cy := w/2, h/2
		return RepeatingLinear{
			X1: cx - dx*length/2, Y1: cy - dy*length/2,
			X2: cx + dx*length/2, Y2: cy + dy*length/2,
			Stops:     replicate(resolveStops(raws, repeat), repeat, length),
			TileWidth: w, TileHeight: h,
		}
	}

	cycle := resolveStops(raws, repeat)
	g := RepeatingLinear{Stops: cycle}
	switch {
	case math.Abs(dy) < axisEpsilon:
		g.TileWidth, g.TileHeight = repeat, 1
		g.X1, g.X2, g.Y1, g.Y2 = 0, repeat, 0.5, 0.5
		if dx < 0 {
			g.X1, g.X2 = repeat, 0
		}
	case math.Abs(dx) < axisEpsilon:
		g.TileWidth, g.TileHeight = 1, repeat
		g.X1, g.X2, g.Y1, g.Y2 = 0.5, 0.5, 0, repeat
		if dy < 0 {
			g.Y1, g.Y2 = repeat, 0
		}
	default:
		// Tiles are whole pixels so the backing store repeats without phase
		// drift. The stripe normal is re-derived from the rounded tile so
		// each edge still spans exactly one period.
		w := math.Max(1, math.Round(repeat/math.Abs(dx)))
		h := math.Max(1, math.Round(repeat/math.Abs(dy)))
		norm := math.Hypot(1/w, 1/h)
		repeat = 1 / norm
		dx = math.Copysign(1/w/norm, dx)
		dy = math.Copysign(1/h/norm, dy)
		// Start at the corner with the smallest projection; the line spans
		// two periods.
		sx, sy := 0.0, 0.0
		if dx < 0 {
			sx = w
		}
		if dy < 0 {
			sy = h
		}
		length := w*math.Abs(dx) + h*math.Abs(dy)
		g.TileWidth, g.TileHeight = w, h
		g.X1, g.Y1 = sx, sy
		g.X2, g.Y2 = sx+dx*length, sy+dy*length
		g.Stops = replicate(cycle, repeat, length)
	}
	return g
}

// ParseSizes parses a background-size list into per-layer tiles. Entries
// that scale with the box (cover, contain, auto, percentages) yield the zero
// Size. "Npx" alone is a square tile.
func ParseSizes(s string) []Size {
	s = Normalize(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	sizes := make([]Size, 0, len(parts))
	for _, p := range parts {
		sizes = append(sizes, parseSize(strings.TrimSpace(p)))
	}
	return sizes
}

var pxToken = regexp.MustCompile(`^([\d.]+)px$`)

func parseSize(p string) Size {
	if p == "cover" || p == "contain" || strings.Contains(p, "%") {
		return Size{}
	}
	fields := strings.Fields(p)
	if len(fields) == 0 {
		return Size{}
	}
	w, ok := pxValue(fields[0])
	if !ok {
		return Size{}
	}
	if len(fields) == 1 {
		return Size{w, w}
	}
	h, ok := pxValue(fields[1])
	if !ok {
		// "20px auto" keeps the tile square.
		return Size{w, w}
	}
	return Size{w, h}
}

func pxValue(tok string) (float64, bool) {
	m := pxToken.FindStringSubmatch(tok)
	if m == nil {
		return 0, false
	}
	v, ok := parseNumber(m[1])
	return v, ok && v > 0
}
