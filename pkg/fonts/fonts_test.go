package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestFontFallback(t *testing.T) {
	r := NewRegistryWithFinder(nil)

	if got := r.Font([]string{"Geist"}, SansSerif); got != fallback(SansSerif) {
		t.Error("sans-serif request should fall back to Go Regular")
	}
	if got := r.Font([]string{"JetBrains Mono"}, Monospace); got != fallback(Monospace) {
		t.Error("monospace request should fall back to Go Mono")
	}
	if got := r.Font(nil, Serif); got == nil {
		t.Error("Font() returned nil")
	}
}

func TestFontLookupCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TestMono.ttf")
	if err := os.WriteFile(path, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	r := NewRegistryWithFinder(func(name string) (string, error) {
		calls++
		if name == "TestMono.ttf" {
			return path, nil
		}
		return "", errors.New("not found")
	})

	f1 := r.Font([]string{"Missing", "TestMono"}, SansSerif)
	if f1 == fallback(SansSerif) {
		t.Fatal("installed font not loaded")
	}
	before := calls
	f2 := r.Font([]string{"Missing", "TestMono"}, SansSerif)
	if f1 != f2 {
		t.Error("second lookup returned a different font")
	}
	if calls != before {
		t.Errorf("finder called %d more times, want cached", calls-before)
	}
}

func TestFace(t *testing.T) {
	r := NewRegistryWithFinder(nil)
	face := r.Face(nil, SansSerif, 24)
	m := face.Metrics()
	if m.Ascent.Ceil() <= 0 || m.Ascent.Ceil() > 24 {
		t.Errorf("ascent = %v, want within font size", m.Ascent.Ceil())
	}
}

func TestCandidates(t *testing.T) {
	got := candidates("JetBrains Mono")
	want := []string{"JetBrains Mono.ttf", "JetBrainsMono.ttf", "JetBrainsMono-Regular.ttf"}
	if len(got) != len(want) {
		t.Fatalf("candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := candidates("Inter-Regular"); len(got) != 1 {
		t.Errorf("candidates(Inter-Regular) = %v, want just the file name", got)
	}
}
