// Package config loads backdrop settings from TOML.
//
// Every section is optional; keys that are absent keep their built-in
// defaults. Command-line flags are applied on top by the caller.
//
//	catalog = "~/brand.toml"
//
//	[style]
//	background = "grid-paper"
//	format = "og-image"
//	padding = 48
//
//	[style.text_settings]
//	font_family = "font-inter"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "72h"
//
//	[server]
//	addr = ":8080"
//	max_image_pixels = 40000000
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/httputil"
	"github.com/matzehuels/backdrop/pkg/loader"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

const appName = "backdrop"

// Config is the whole configuration file.
type Config struct {
	// Catalog is an extra catalog file merged over the built-in one.
	Catalog string       `toml:"catalog"`
	Style   StyleConfig  `toml:"style"`
	Cache   cache.Config `toml:"cache"`
	Server  ServerConfig `toml:"server"`
}

// StyleConfig holds the session defaults for renders.
type StyleConfig struct {
	render.Style
	Background string `toml:"background"`
	Format     string `toml:"format"`
}

// ServerConfig configures `backdrop serve`.
type ServerConfig struct {
	Addr           string        `toml:"addr"`
	MaxUploadBytes int64         `toml:"max_upload_bytes"`
	RenderTimeout  time.Duration `toml:"render_timeout"`
	// MaxImageSide and MaxImagePixels bound decoded screenshot dimensions.
	MaxImageSide   int   `toml:"max_image_side"`
	MaxImagePixels int64 `toml:"max_image_pixels"`
}

// ImageLimits returns the decode bounds for the loader.
func (s ServerConfig) ImageLimits() loader.Limits {
	return loader.Limits{MaxSide: s.MaxImageSide, MaxPixels: s.MaxImagePixels}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Style: StyleConfig{
			Style:      render.DefaultStyle(),
			Background: pipeline.DefaultBackground,
			Format:     pipeline.DefaultFormat,
		},
		Cache: cache.Config{
			Backend: cache.BackendFile,
			TTL:     cache.ArtifactTTL,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: httputil.DefaultMaxBytes,
			RenderTimeout:  30 * time.Second,
			MaxImageSide:   loader.DefaultMaxSide,
			MaxImagePixels: loader.DefaultMaxPixels,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/backdrop/config.toml, falling back
// to ~/.config/backdrop/config.toml.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over Default. An empty path reads
// DefaultPath and tolerates its absence; an explicit path must exist.
// Unknown keys are an error so typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(expandHome(path), &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Catalog = expandHome(cfg.Catalog)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, nil
}

// Options returns pipeline options seeded from the style section.
func (c Config) Options() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Style = c.Style.Style
	if c.Style.Background != "" {
		opts.Background = c.Style.Background
	}
	if c.Style.Format != "" {
		opts.Format = c.Style.Format
	}
	return opts
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
