package color

import (
	"image/color"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   color.NRGBA
		wantOK bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, true},
		{"#FFF", color.NRGBA{255, 255, 255, 255}, true},
		{"#e5e5e5", color.NRGBA{0xe5, 0xe5, 0xe5, 255}, true},
		{"#80808012", color.NRGBA{0x80, 0x80, 0x80, 0x12}, true},
		{"#0008", color.NRGBA{0, 0, 0, 0x88}, true},
		{"rgb(99, 102, 241)", color.NRGBA{99, 102, 241, 255}, true},
		{"rgba(0,0,0,0.4)", color.NRGBA{0, 0, 0, 102}, true},
		{"rgba(255 255 255 / 50%)", color.NRGBA{255, 255, 255, 128}, true},
		{"transparent", color.NRGBA{}, true},
		{"black", color.NRGBA{0, 0, 0, 255}, true},
		{"#12345", color.NRGBA{}, false},
		{"#ggg", color.NRGBA{}, false},
		{"hsl(0, 0%, 0%)", color.NRGBA{}, false},
		{"rgb(1,2)", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskAlpha(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"transparent", 0},
		{"#000", 1},
		{"#000000", 1},
		{"#ffffff", 0},
		{"#00000080", 128.0 / 255},
		{"rgba(0,0,0,0.5)", 0.5},
		{"rgba(255,255,255,1)", 1},
		{"rgb(255,255,255)", 0},
		{"white", 0},
		{"hsl(0,0%,0%)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MaskAlpha(tt.in)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("MaskAlpha(%q) = %.3f, want %.3f", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskAlphaDarkerIsMoreOpaque(t *testing.T) {
	dark := MaskAlpha("#333333")
	light := MaskAlpha("#cccccc")
	if dark <= light {
		t.Errorf("MaskAlpha(#333333) = %v, want > MaskAlpha(#cccccc) = %v", dark, light)
	}
}

func TestWithAlpha(t *testing.T) {
	got := WithAlpha(color.NRGBA{10, 20, 30, 200}, 0.5)
	if got.A != 100 {
		t.Errorf("WithAlpha alpha = %d, want 100", got.A)
	}
	if got := WithAlpha(Black, 3); got.A != 255 {
		t.Errorf("WithAlpha clamps: alpha = %d, want 255", got.A)
	}
}

func TestKeywordsParse(t *testing.T) {
	names := Keywords()
	if len(names) == 0 {
		t.Fatal("Keywords() is empty")
	}
	for _, name := range names {
		if _, ok := Parse(name); !ok {
			t.Errorf("Parse(%q) failed for a listed keyword", name)
		}
	}
}
