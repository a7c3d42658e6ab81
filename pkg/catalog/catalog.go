// Package catalog holds the static lookup tables the renderer reads:
// background patterns, output formats, fonts and text gradients.
//
// The built-in tables are embedded TOML. Additional TOML files can be merged
// on top; entries with an existing id replace the built-in one.
//
// # Usage
//
//	cat := catalog.Default()
//	p, ok := cat.Pattern("top-gradient-radial")
//	f, _ := cat.Format("og-image")
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/backdrop/pkg/core/layout"
)

//go:embed catalog.toml
var builtin []byte

// Style is the CSS subset a pattern is described with. Mask fields are
// checked in the order MaskImage, WebkitMaskImage, Mask, WebkitMask.
type Style struct {
	Background      string `toml:"background" json:"background,omitempty"`
	BackgroundImage string `toml:"background_image" json:"backgroundImage,omitempty"`
	BackgroundColor string `toml:"background_color" json:"backgroundColor,omitempty"`
	BackgroundSize  string `toml:"background_size" json:"backgroundSize,omitempty"`
	MaskImage       string `toml:"mask_image" json:"maskImage,omitempty"`
	WebkitMaskImage string `toml:"webkit_mask_image" json:"WebkitMaskImage,omitempty"`
	Mask            string `toml:"mask" json:"mask,omitempty"`
	WebkitMask      string `toml:"webkit_mask" json:"WebkitMask,omitempty"`
	MaskSize        string `toml:"mask_size" json:"maskSize,omitempty"`
	MaskComposite   string `toml:"mask_composite" json:"maskComposite,omitempty"`
}

// GradientSource returns the string holding the background gradients:
// BackgroundImage unless it is empty or "none", else Background.
func (s Style) GradientSource() string {
	if set(s.BackgroundImage) {
		return s.BackgroundImage
	}
	return s.Background
}

// MaskSource returns the first declared mask string, or "".
func (s Style) MaskSource() string {
	for _, m := range []string{s.MaskImage, s.WebkitMaskImage, s.Mask, s.WebkitMask} {
		if set(m) {
			return m
		}
	}
	return ""
}

func set(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "none"
}

// Pattern is a named background descriptor.
type Pattern struct {
	ID    string `toml:"id" json:"id"`
	Name  string `toml:"name" json:"name"`
	Badge string `toml:"badge" json:"badge,omitempty"`
	Style Style  `toml:"style" json:"style"`
}

// Format is a named output size. Zero dimensions mean auto.
type Format struct {
	ID       string  `toml:"id" json:"id"`
	Name     string  `toml:"name" json:"name"`
	Category string  `toml:"category" json:"category,omitempty"`
	Width    float64 `toml:"width" json:"width"`
	Height   float64 `toml:"height" json:"height"`
}

// Spec returns the layout format for f.
func (f Format) Spec() layout.Format {
	return layout.Format{ID: f.ID, Width: f.Width, Height: f.Height}
}

// IsAuto reports whether f sizes to the image.
func (f Format) IsAuto() bool { return f.Spec().IsAuto() }

// Font maps a font id to the family names tried when loading it.
type Font struct {
	ID       string   `toml:"id" json:"id"`
	Name     string   `toml:"name" json:"name"`
	Families []string `toml:"families" json:"families"`
	// Generic is "sans-serif", "serif" or "monospace".
	Generic string `toml:"generic" json:"generic"`
}

// TextGradient is a named linear-gradient for corner text.
type TextGradient struct {
	ID       string `toml:"id" json:"id"`
	Name     string `toml:"name" json:"name"`
	Gradient string `toml:"gradient" json:"gradient"`
}

// file is the TOML document layout.
type file struct {
	Patterns      []Pattern      `toml:"patterns"`
	Formats       []Format       `toml:"formats"`
	Fonts         []Font         `toml:"fonts"`
	TextGradients []TextGradient `toml:"text_gradients"`
}

// Catalog is an immutable set of lookup tables.
type Catalog struct {
	patterns      []Pattern
	formats       []Format
	fonts         []Font
	textGradients []TextGradient

	patternIdx  map[string]int
	formatIdx   map[string]int
	fontIdx     map[string]int
	gradientIdx map[string]int
}

// Parse builds a Catalog from TOML data.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return build(f)
}

// Load parses the TOML file at path and merges it over base. A nil base
// starts from an empty catalog.
func Load(base *Catalog, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return extra, nil
	}
	return base.Merge(extra)
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the built-in catalog. It panics if the embedded data is
// invalid, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(builtin)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Merge returns a new catalog with the entries of other added to c. Entries
// of other replace entries of c with the same id.
func (c *Catalog) Merge(other *Catalog) (*Catalog, error) {
	return build(file{
		Patterns:      mergeByID(c.patterns, other.patterns, func(p Pattern) string { return p.ID }),
		Formats:       mergeByID(c.formats, other.formats, func(f Format) string { return f.ID }),
		Fonts:         mergeByID(c.fonts, other.fonts, func(f Font) string { return f.ID }),
		TextGradients: mergeByID(c.textGradients, other.textGradients, func(g TextGradient) string { return g.ID }),
	})
}

func mergeByID[T any](base, extra []T, id func(T) string) []T {
	out := slices.Clone(base)
	for _, e := range extra {
		if i := slices.IndexFunc(out, func(b T) bool { return id(b) == id(e) }); i >= 0 {
			out[i] = e
		} else {
			out = append(out, e)
		}
	}
	return out
}

func build(f file) (*Catalog, error) {
	c := &Catalog{
		patterns:      f.Patterns,
		formats:       f.Formats,
		fonts:         f.Fonts,
		textGradients: f.TextGradients,
	}
	var err error
	if c.patternIdx, err = index("pattern", c.patterns, func(p Pattern) string { return p.ID }); err != nil {
		return nil, err
	}
	if c.formatIdx, err = index("format", c.formats, func(f Format) string { return f.ID }); err != nil {
		return nil, err
	}
	if c.fontIdx, err = index("font", c.fonts, func(f Font) string { return f.ID }); err != nil {
		return nil, err
	}
	if c.gradientIdx, err = index("text gradient", c.textGradients, func(g TextGradient) string { return g.ID }); err != nil {
		return nil, err
	}
	return c, nil
}

func index[T any](kind string, items []T, id func(T) string) (map[string]int, error) {
	idx := make(map[string]int, len(items))
	for i, it := range items {
		k := id(it)
		if k == "" {
			return nil, fmt.Errorf("%s %d: missing id", kind, i)
		}
		if _, dup := idx[k]; dup {
			return nil, fmt.Errorf("duplicate %s id %q", kind, k)
		}
		idx[k] = i
	}
	return idx, nil
}

// Pattern returns the pattern with the given id.
func (c *Catalog) Pattern(id string) (Pattern, bool) {
	i, ok := c.patternIdx[id]
	if !ok {
		return Pattern{}, false
	}
	return c.patterns[i], true
}

// Format returns the format with the given id. "auto" always resolves.
func (c *Catalog) Format(id string) (Format, bool) {
	if i, ok := c.formatIdx[id]; ok {
		return c.formats[i], true
	}
	if id == "auto" {
		return Format{ID: "auto", Name: "Auto"}, true
	}
	return Format{}, false
}

// Font returns the font with the given id, falling back to the first font
// in the catalog. The zero Font is returned only for an empty catalog.
func (c *Catalog) Font(id string) Font {
	if i, ok := c.fontIdx[id]; ok {
		return c.fonts[i]
	}
	if len(c.fonts) > 0 {
		return c.fonts[0]
	}
	return Font{}
}

// TextGradient returns the gradient string for a text gradient id.
func (c *Catalog) TextGradient(id string) (string, bool) {
	i, ok := c.gradientIdx[id]
	if !ok {
		return "", false
	}
	return c.textGradients[i].Gradient, true
}

// Patterns returns all patterns in catalog order.
func (c *Catalog) Patterns() []Pattern { return slices.Clone(c.patterns) }

// Formats returns all formats in catalog order.
func (c *Catalog) Formats() []Format { return slices.Clone(c.formats) }

// Fonts returns all fonts in catalog order.
func (c *Catalog) Fonts() []Font { return slices.Clone(c.fonts) }

// TextGradients returns all text gradients in catalog order.
func (c *Catalog) TextGradients() []TextGradient { return slices.Clone(c.textGradients) }
