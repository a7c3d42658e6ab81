package pipeline

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/loader"
)

// DefaultBaseName names outputs whose source has no usable file name.
const DefaultBaseName = "screenshot"

// FileName returns the export name for base in format f: "<base>.png" for
// auto, otherwise "<base>-<slug of the format name>.png".
func FileName(base string, f catalog.Format) string {
	base = slug(base)
	if base == "" {
		base = DefaultBaseName
	}
	if f.IsAuto() {
		return base + ".png"
	}
	name := slug(f.Name)
	if name == "" {
		name = slug(f.ID)
	}
	return base + "-" + name + ".png"
}

// BaseName derives an output base name from a screenshot source: the file
// name without extension for paths and URLs, DefaultBaseName otherwise.
func BaseName(src string) string {
	var name string
	switch loader.Kind(src) {
	case loader.KindFile:
		name = filepath.Base(src)
	case loader.KindHTTP:
		if u, err := url.Parse(src); err == nil {
			name = path.Base(u.Path)
		}
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if s := slug(name); s != "" {
		return s
	}
	return DefaultBaseName
}

// slug lowercases s and collapses every run of characters outside
// [a-z0-9._] into one hyphen.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-.")
}

// nameSet hands out unique file names, suffixing repeats with -2, -3...
type nameSet map[string]int

func (n nameSet) unique(name string) string {
	n[name]++
	if n[name] == 1 {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		candidate := fmt.Sprintf("%s-%d%s", stem, n[name], ext)
		if _, taken := n[candidate]; !taken {
			n[candidate] = 1
			return candidate
		}
		n[name]++
	}
}
