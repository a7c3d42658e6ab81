package gradient

import (
	"math"
	"testing"
)

func TestResolveStops(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		maxExtent float64
		want      []Stop
	}{
		{
			name: "percent stops",
			args: "#fff 0%,#000 100%", maxExtent: 100,
			want: []Stop{{0, "#fff"}, {1, "#000"}},
		},
		{
			name: "evenly spaced without positions",
			args: "#f00,#0f0,#00f", maxExtent: 100,
			want: []Stop{{0, "#f00"}, {0.5, "#0f0"}, {1, "#00f"}},
		},
		{
			name: "single stop at zero",
			args: "#fff", maxExtent: 100,
			want: []Stop{{0, "#fff"}},
		},
		{
			name: "px relative to extent",
			args: "#000 0px,#fff 50px", maxExtent: 100,
			want: []Stop{{0, "#000"}, {0.5, "#fff"}},
		},
		{
			name: "interleaved positions",
			args: "#f00,#0f0 30%,#00f", maxExtent: 100,
			want: []Stop{{0, "#f00"}, {0.3, "#0f0"}, {1, "#00f"}},
		},
		{
			name: "two-position shorthand",
			args: "#000 0 2px,#fff 2px 8px", maxExtent: 8,
			want: []Stop{{0, "#000"}, {0.25, "#000"}, {0.25, "#fff"}, {1, "#fff"}},
		},
		{
			name: "rgba color keeps its arguments",
			args: "rgba(0,0,0,0.5) 25%,transparent 75%", maxExtent: 100,
			want: []Stop{{0.25, "rgba(0,0,0,0.5)"}, {0.75, "transparent"}},
		},
		{
			name: "out of range clamped",
			args: "#000 -20%,#fff 150%", maxExtent: 100,
			want: []Stop{{0, "#000"}, {1, "#fff"}},
		},
		{
			name: "px without extent dropped",
			args: "#000 4px,#fff 50%", maxExtent: 0,
			want: []Stop{{0.5, "#fff"}},
		},
		{
			name: "named colors",
			args: "red,green 40%,blue", maxExtent: 100,
			want: []Stop{{0, "red"}, {0.4, "green"}, {1, "blue"}},
		},
		{
			name: "named colors ignore case",
			args: "Grey 10%,WHITE 90%", maxExtent: 100,
			want: []Stop{{0.1, "Grey"}, {0.9, "WHITE"}},
		},
		{name: "no colors", args: "to right", maxExtent: 100, want: []Stop{}},
		{name: "keyword inside a word", args: "centered", maxExtent: 100, want: []Stop{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStops(tt.args, tt.maxExtent)
			if len(got) != len(tt.want) {
				t.Fatalf("ResolveStops(%q) = %v, want %v", tt.args, got, tt.want)
			}
			for i := range got {
				if got[i].Color != tt.want[i].Color || math.Abs(got[i].Offset-tt.want[i].Offset) > 1e-9 {
					t.Errorf("ResolveStops(%q)[%d] = %v, want %v", tt.args, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveStopsAlwaysClamped(t *testing.T) {
	inputs := []string{
		"#000 -100px,#fff 900px",
		"#000 -5%,rgba(1,2,3,0.4) 250%,#fff 99999%",
		"#000 1e3%,#fff",
		"transparent -0.5,black 7",
	}
	for _, in := range inputs {
		for _, s := range ResolveStops(in, 40) {
			if s.Offset < 0 || s.Offset > 1 {
				t.Errorf("ResolveStops(%q) offset %v outside [0,1]", in, s.Offset)
			}
		}
	}
}

func TestReplicate(t *testing.T) {
	cycle := []Stop{{0, "a"}, {0.5, "b"}, {1, "c"}}
	got := replicate(cycle, 10, 20)
	want := []float64{0, 0.25, 0.5, 0.5, 0.75, 1}
	if len(got) != len(want) {
		t.Fatalf("replicate() = %v, want %d stops", got, len(want))
	}
	for i, w := range want {
		if math.Abs(got[i].Offset-w) > 1e-9 {
			t.Errorf("replicate()[%d].Offset = %v, want %v", i, got[i].Offset, w)
		}
	}

	// A partial final cycle stops at the end of the line.
	got = replicate(cycle, 10, 15)
	for _, s := range got {
		if s.Offset > 1 {
			t.Errorf("replicate() offset %v beyond line", s.Offset)
		}
	}
	if len(got) != 5 {
		t.Errorf("replicate() partial = %d stops, want 5", len(got))
	}
}
