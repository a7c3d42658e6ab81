package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/backdrop/pkg/core/gradient"
)

func TestDefault(t *testing.T) {
	c := Default()

	for _, id := range []string{"top-gradient-radial", "grid-paper", "diagonal-stripes", "concentric-rings", "grid-fade-top"} {
		if _, ok := c.Pattern(id); !ok {
			t.Errorf("Pattern(%q) missing from built-in catalog", id)
		}
	}
	if _, ok := c.Pattern("nope"); ok {
		t.Error("Pattern(nope) should miss")
	}

	f, ok := c.Format("og-image")
	if !ok || f.Width != 1200 || f.Height != 630 {
		t.Errorf("Format(og-image) = %+v, %v", f, ok)
	}
	if f, ok := c.Format("auto"); !ok || !f.IsAuto() {
		t.Errorf("Format(auto) = %+v, %v, want auto", f, ok)
	}

	if got := c.Font("missing").ID; got != "font-geist-sans" {
		t.Errorf("Font fallback = %q, want first font", got)
	}
	if g, ok := c.TextGradient("sunset"); !ok || g == "" {
		t.Errorf("TextGradient(sunset) = %q, %v", g, ok)
	}
}

func TestDefaultPatternsParse(t *testing.T) {
	for _, p := range Default().Patterns() {
		src := p.Style.GradientSource()
		if len(gradient.Scan(gradient.Normalize(src))) == 0 {
			// Solid patterns carry no gradient.
			continue
		}
		if got := gradient.ParseAll(src, 1200, 630, gradient.ParseSizes(p.Style.BackgroundSize)); len(got) == 0 {
			t.Errorf("pattern %q: no layers parsed from %q", p.ID, src)
		}
		if m := p.Style.MaskSource(); m != "" {
			if got := gradient.ParseAll(m, 1200, 630, nil); len(got) == 0 {
				t.Errorf("pattern %q: mask %q did not parse", p.ID, m)
			}
		}
	}
}

func TestStyleSources(t *testing.T) {
	tests := []struct {
		name       string
		style      Style
		wantSource string
		wantMask   string
	}{
		{"background only", Style{Background: "linear-gradient(#fff,#000)"}, "linear-gradient(#fff,#000)", ""},
		{"image wins", Style{Background: "#fff", BackgroundImage: "radial-gradient(#fff,#000)"}, "radial-gradient(#fff,#000)", ""},
		{"image none ignored", Style{Background: "#fff", BackgroundImage: "none"}, "#fff", ""},
		{"mask order", Style{Mask: "b", WebkitMaskImage: "a"}, "", "a"},
		{"mask none skipped", Style{MaskImage: "none", WebkitMask: "c"}, "", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.style.GradientSource(); got != tt.wantSource {
				t.Errorf("GradientSource() = %q, want %q", got, tt.wantSource)
			}
			if got := tt.style.MaskSource(); got != tt.wantMask {
				t.Errorf("MaskSource() = %q, want %q", got, tt.wantMask)
			}
		})
	}
}

func TestLoadMerges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.toml")
	data := `
[[patterns]]
id = "grid-paper"
name = "Grid Paper (custom)"
[patterns.style]
background = "#123456"

[[formats]]
id = "banner"
name = "Banner"
width = 1500
height = 500
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(Default(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	p, _ := c.Pattern("grid-paper")
	if p.Style.Background != "#123456" {
		t.Errorf("override not applied: %+v", p)
	}
	if _, ok := c.Format("banner"); !ok {
		t.Error("new format missing after merge")
	}
	if len(c.Patterns()) != len(Default().Patterns()) {
		t.Errorf("override should not add a pattern: %d vs %d", len(c.Patterns()), len(Default().Patterns()))
	}
	// The built-in catalog is unchanged.
	if p, _ := Default().Pattern("grid-paper"); p.Style.Background == "#123456" {
		t.Error("Default() was mutated by Merge")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid toml", "[[patterns]\nid="},
		{"missing id", "[[patterns]]\nname = \"x\""},
		{"duplicate id", "[[formats]]\nid = \"a\"\n[[formats]]\nid = \"a\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}
