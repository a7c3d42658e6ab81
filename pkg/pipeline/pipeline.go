// Package pipeline turns screenshots into finished PNGs.
//
// It is shared by the CLI and the HTTP server so both apply the same
// defaults, validation and caching:
//
//  1. Load: read the screenshot bytes (file, data URL or http)
//  2. Compose: decode and draw through pkg/core/render
//  3. Export: resample to logical size and encode PNG
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Source = "shot.png"
//	opts.Format = "og-image"
//	result, err := runner.Render(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(pipeline.FileName("shot", format), result.PNG, 0o644)
//
// [Runner.Batch] renders many screenshots through one render.Drawer and
// [WriteZip] packages the outputs with a manifest.
package pipeline

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/core/layout"
	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultBackground is the pattern used when none is given.
	DefaultBackground = "top-gradient-radial"

	// DefaultFormat sizes the canvas to the screenshot.
	DefaultFormat = "auto"

	// DefaultPixelRatio renders at twice the logical size before the
	// export resample.
	DefaultPixelRatio = layout.MaxPixelRatio
)

// =============================================================================
// Options - Render Configuration
// =============================================================================

// Options configures one render. Start from DefaultOptions; zero values in
// Style are taken literally (a zero padding means no padding).
type Options struct {
	// Source is a file path, data URL or http(s) URL. Empty renders the
	// background alone.
	Source             string       `json:"source,omitempty"`
	Background         string       `json:"background"`
	Format             string       `json:"format"`
	Style              render.Style `json:"style"`
	ShowBackgroundOnly bool         `json:"show_background_only,omitempty"`
	PixelRatio         float64      `json:"pixel_ratio,omitempty"`
	// Preview downscales the output to Style.CanvasSize percent.
	Preview bool `json:"preview,omitempty"`
	// Refresh skips the cache lookup.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	return Options{
		Background: DefaultBackground,
		Format:     DefaultFormat,
		Style:      render.DefaultStyle(),
		PixelRatio: DefaultPixelRatio,
	}
}

// ValidateAndSetDefaults fills empty ids and text settings, then checks
// every id against cat and every number for range. It is idempotent.
func (o *Options) ValidateAndSetDefaults(cat render.Catalog) error {
	if o.validated {
		return nil
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.PixelRatio == 0 {
		o.PixelRatio = DefaultPixelRatio
	}
	o.Style = withStyleDefaults(o.Style)
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := errors.ValidateID(o.Background); err != nil {
		return err
	}
	if _, ok := cat.Pattern(o.Background); !ok {
		return errors.New(errors.ErrCodeUnknownPattern, "unknown pattern %q", o.Background)
	}
	if err := errors.ValidateID(o.Format); err != nil {
		return err
	}
	if _, ok := cat.Format(o.Format); !ok {
		return errors.New(errors.ErrCodeUnknownFormat, "unknown format %q", o.Format)
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if math.IsNaN(o.PixelRatio) || o.PixelRatio < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pixel ratio must be positive")
	}
	o.validated = true
	return nil
}

// withStyleDefaults fills string settings left empty. Numbers are kept.
func withStyleDefaults(s render.Style) render.Style {
	d := render.DefaultStyle()
	if s.BaseColor == "" {
		s.BaseColor = d.BaseColor
	}
	if s.ShadowSettings.ShadowColor == "" {
		s.ShadowSettings.ShadowColor = d.ShadowSettings.ShadowColor
	}
	if s.ShadowSettings.FillStyle == "" {
		s.ShadowSettings.FillStyle = d.ShadowSettings.FillStyle
	}
	ts := &s.TextSettings
	if ts.FontSize == 0 {
		ts.FontSize = d.TextSettings.FontSize
	}
	if ts.TextColor == "" {
		ts.TextColor = d.TextSettings.TextColor
	}
	if ts.FontFamily == "" {
		ts.FontFamily = d.TextSettings.FontFamily
	}
	if ts.TextGradient == "" {
		ts.TextGradient = d.TextSettings.TextGradient
	}
	if s.CanvasSize == 0 {
		s.CanvasSize = d.CanvasSize
	}
	return s
}

// ValidateStyle range-checks the numeric style fields.
func ValidateStyle(s render.Style) error {
	checks := []struct {
		name string
		v    float64
		max  float64
	}{
		{"padding", s.Padding, 1000},
		{"corner radius", s.CornerRadius, 1000},
		{"shadow", s.Shadow, 500},
		{"font size", s.TextSettings.FontSize, 500},
		{"text opacity", s.TextSettings.TextOpacity, 1},
		{"canvas size", s.CanvasSize, 100},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < 0 || c.v > c.max {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be between 0 and %g", c.name, c.max)
		}
	}
	if strings.TrimSpace(s.BaseColor) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "base color cannot be empty")
	}
	return nil
}

// ArtifactKeyOpts returns the cache key options for these options.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	style, _ := json.Marshal(o.Style)
	k := cache.ArtifactKeyOpts{
		Background:         o.Background,
		Format:             o.Format,
		PixelRatio:         layout.PixelRatio(o.PixelRatio),
		ShowBackgroundOnly: o.ShowBackgroundOnly,
		Style:              string(style),
	}
	if o.Preview {
		k.Preview = o.Style.CanvasSize
	}
	return k
}

func (o *Options) request() render.Request {
	return render.Request{
		Background:         o.Background,
		Format:             o.Format,
		Style:              o.Style,
		ShowBackgroundOnly: o.ShowBackgroundOnly,
		PixelRatio:         o.PixelRatio,
	}
}
