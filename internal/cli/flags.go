package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/backdrop/pkg/pipeline"
)

// styleFlags are the look flags shared by render and batch. Only flags the
// user actually set override the config.
type styleFlags struct {
	background string
	format     string

	padding      float64
	cornerRadius float64
	shadow       float64
	baseColor    string
	pixelRatio   float64
	canvasSize   float64

	topLeft, topRight, bottomLeft, bottomRight string

	font         string
	fontSize     float64
	textColor    string
	textOpacity  float64
	textGradient string

	backgroundOnly bool
	preview        bool
	refresh        bool
}

func (f *styleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.background, "background", "b", "", "background pattern id (see `backdrop patterns`)")
	fs.StringVarP(&f.format, "format", "f", "", "output format id(s), comma-separated (see `backdrop formats`)")

	fs.Float64VarP(&f.padding, "padding", "p", 0, "padding around the screenshot in pixels")
	fs.Float64Var(&f.cornerRadius, "radius", 0, "screenshot corner radius in pixels")
	fs.Float64Var(&f.shadow, "shadow", 0, "shadow blur in pixels (0 disables)")
	fs.StringVar(&f.baseColor, "base-color", "", `canvas base color, or "auto" to infer it from the pattern`)
	fs.Float64Var(&f.pixelRatio, "pixel-ratio", 0, "backing store density, 1 or 2")
	fs.Float64Var(&f.canvasSize, "canvas-size", 0, "preview scale in percent")

	fs.StringVar(&f.topLeft, "text-top-left", "", "corner text")
	fs.StringVar(&f.topRight, "text-top-right", "", "corner text")
	fs.StringVar(&f.bottomLeft, "text-bottom-left", "", "corner text")
	fs.StringVar(&f.bottomRight, "text-bottom-right", "", "corner text")

	fs.StringVar(&f.font, "font", "", "corner text font id or family name")
	fs.Float64Var(&f.fontSize, "font-size", 0, "corner text size in pixels")
	fs.StringVar(&f.textColor, "text-color", "", "corner text color")
	fs.Float64Var(&f.textOpacity, "text-opacity", 0, "corner text opacity, 0 to 1")
	fs.StringVar(&f.textGradient, "text-gradient", "", `corner text gradient id or linear-gradient(...), "none" for solid`)

	fs.BoolVar(&f.backgroundOnly, "background-only", false, "render the background without the screenshot")
	fs.BoolVar(&f.preview, "preview", false, "downscale the output to --canvas-size percent")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached artifacts")
}

// apply overlays the flags the user set on opts.
func (f *styleFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	changed := cmd.Flags().Changed
	st := &opts.Style

	if changed("background") {
		opts.Background = f.background
	}
	if changed("pixel-ratio") {
		opts.PixelRatio = f.pixelRatio
	}
	if changed("padding") {
		st.Padding = f.padding
	}
	if changed("radius") {
		st.CornerRadius = f.cornerRadius
	}
	if changed("shadow") {
		st.Shadow = f.shadow
	}
	if changed("base-color") {
		st.BaseColor = f.baseColor
	}
	if changed("canvas-size") {
		st.CanvasSize = f.canvasSize
	}

	for name, dst := range map[string]*string{
		"text-top-left":     &st.CornerTexts.TopLeft,
		"text-top-right":    &st.CornerTexts.TopRight,
		"text-bottom-left":  &st.CornerTexts.BottomLeft,
		"text-bottom-right": &st.CornerTexts.BottomRight,
		"font":              &st.TextSettings.FontFamily,
		"text-color":        &st.TextSettings.TextColor,
		"text-gradient":     &st.TextSettings.TextGradient,
	} {
		if changed(name) {
			*dst = cmd.Flags().Lookup(name).Value.String()
		}
	}
	if changed("font-size") {
		st.TextSettings.FontSize = f.fontSize
	}
	if changed("text-opacity") {
		st.TextSettings.TextOpacity = f.textOpacity
	}

	opts.ShowBackgroundOnly = opts.ShowBackgroundOnly || f.backgroundOnly
	opts.Preview = opts.Preview || f.preview
	opts.Refresh = opts.Refresh || f.refresh
}

// formats returns the requested format ids, or the configured one.
func (f *styleFlags) formats(opts pipeline.Options) []string {
	if ids := splitList(f.format); len(ids) > 0 {
		return ids
	}
	if opts.Format == "" {
		return []string{pipeline.DefaultFormat}
	}
	return []string{opts.Format}
}
