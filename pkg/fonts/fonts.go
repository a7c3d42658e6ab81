// Package fonts resolves font families to TrueType faces for text overlays.
//
// Families are looked up among installed fonts with go-findfont. When no
// installed file matches, the embedded Go fonts stand in: Go Mono for
// monospace requests and Go Regular for everything else. A Registry memoizes
// parsed fonts, so each file is read and parsed once per process.
package fonts

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Generic family names.
const (
	SansSerif = "sans-serif"
	Serif     = "serif"
	Monospace = "monospace"
)

// Finder locates a font file by name. findfont.Find is the default.
type Finder func(name string) (string, error)

// Registry loads and caches fonts. It is safe for concurrent use.
type Registry struct {
	find Finder

	mu    sync.Mutex
	fonts map[string]*truetype.Font
}

// NewRegistry returns a Registry that searches installed fonts.
func NewRegistry() *Registry {
	return NewRegistryWithFinder(findfont.Find)
}

// NewRegistryWithFinder returns a Registry using find to locate font files.
// A nil finder disables system lookup, leaving only the embedded fonts.
func NewRegistryWithFinder(find Finder) *Registry {
	return &Registry{find: find, fonts: make(map[string]*truetype.Font)}
}

var (
	embedded     map[string]*truetype.Font
	embeddedOnce sync.Once
)

// fallback returns the embedded font for a generic family.
func fallback(generic string) *truetype.Font {
	embeddedOnce.Do(func() {
		embedded = map[string]*truetype.Font{
			SansSerif: mustParse(goregular.TTF),
			Monospace: mustParse(gomono.TTF),
		}
	})
	if generic == Monospace {
		return embedded[Monospace]
	}
	return embedded[SansSerif]
}

func mustParse(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

// Font returns the first of families that can be loaded, or the embedded
// fallback for generic. It never returns nil.
func (r *Registry) Font(families []string, generic string) *truetype.Font {
	for _, fam := range families {
		if f := r.lookup(fam); f != nil {
			return f
		}
	}
	return fallback(generic)
}

// Face returns a face for the font at size pixels.
func (r *Registry) Face(families []string, generic string, size float64) font.Face {
	return truetype.NewFace(r.Font(families, generic), &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (r *Registry) lookup(family string) *truetype.Font {
	family = strings.TrimSpace(family)
	if family == "" || r.find == nil {
		return nil
	}
	key := strings.ToLower(family)

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.fonts[key]; ok {
		return f
	}
	f, _ := r.load(family)
	// Misses are cached too so repeated renders skip the directory walk.
	r.fonts[key] = f
	return f
}

func (r *Registry) load(family string) (*truetype.Font, error) {
	var lastErr error
	for _, name := range candidates(family) {
		path, err := r.find(name)
		if err != nil {
			lastErr = err
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", path, err)
			continue
		}
		return f, nil
	}
	return nil, lastErr
}

// candidates lists file names tried for a family, e.g. "JetBrains Mono"
// yields JetBrains Mono.ttf, JetBrainsMono.ttf and JetBrainsMono-Regular.ttf.
func candidates(family string) []string {
	compact := strings.ReplaceAll(family, " ", "")
	names := []string{family + ".ttf"}
	if compact != family {
		names = append(names, compact+".ttf")
	}
	if !strings.Contains(compact, "-") {
		names = append(names, compact+"-Regular.ttf")
	}
	return names
}
