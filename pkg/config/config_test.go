package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/core/render"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[style]
background = "grid-paper"
padding = 48

[style.text_settings]
font_family = "font-inter"

[style.corner_texts]
bottom_right = "@backdrop"

[cache]
backend = "redis"
redis_addr = "cache:6379"
ttl = "72h"

[server]
addr = ":9000"
max_image_side = 4096
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	d := render.DefaultStyle()
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"background", cfg.Style.Background, "grid-paper"},
		{"format default kept", cfg.Style.Format, "auto"},
		{"padding", cfg.Style.Padding, 48.0},
		{"corner radius default kept", cfg.Style.CornerRadius, d.CornerRadius},
		{"font family", cfg.Style.TextSettings.FontFamily, "font-inter"},
		{"font size default kept", cfg.Style.TextSettings.FontSize, d.TextSettings.FontSize},
		{"corner text", cfg.Style.CornerTexts.BottomRight, "@backdrop"},
		{"cache backend", cfg.Cache.Backend, cache.BackendRedis},
		{"cache ttl", cfg.Cache.TTL, 72 * time.Hour},
		{"redis addr", cfg.Cache.RedisAddr, "cache:6379"},
		{"server addr", cfg.Server.Addr, ":9000"},
		{"upload limit default kept", cfg.Server.MaxUploadBytes, Default().Server.MaxUploadBytes},
		{"max image side", cfg.Server.ImageLimits().MaxSide, 4096},
		{"max image pixels default kept", cfg.Server.MaxImagePixels, Default().Server.MaxImagePixels},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "[style]\npaddin = 10\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "style.paddin") {
		t.Errorf("Load() error = %v, want unknown key style.paddin", err)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Style.Background != Default().Style.Background {
		t.Errorf("Background = %q, want default", cfg.Style.Background)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() of a missing explicit path succeeded")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/xdg", "backdrop", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Style.Background = "dot-grid"
	cfg.Style.Padding = 8
	opts := cfg.Options()
	if opts.Background != "dot-grid" || opts.Format != "auto" || opts.Style.Padding != 8 {
		t.Errorf("Options() = %+v", opts)
	}
}
