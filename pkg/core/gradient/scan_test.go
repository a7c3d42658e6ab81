package gradient

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"collapses whitespace", "linear-gradient(  to right,\n  #fff 0%,\t#000 100% )", "linear-gradient(to right,#fff 0%,#000 100%)"},
		{"strips around commas", "rgba(0, 0, 0, 0.5) , #fff", "rgba(0,0,0,0.5),#fff"},
		{"trims", "  radial-gradient(#fff,#000)  ", "radial-gradient(#fff,#000)"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Call
	}{
		{
			name: "single linear",
			in:   "linear-gradient(to right,#fff,#000)",
			want: []Call{{KindLinear, "to right,#fff,#000"}},
		},
		{
			name: "nested rgba stays inside",
			in:   "radial-gradient(circle at 50% 50%,rgba(0,0,0,0.5) 0%,transparent 70%)",
			want: []Call{{KindRadial, "circle at 50% 50%,rgba(0,0,0,0.5) 0%,transparent 70%"}},
		},
		{
			name: "repeating variants are not split",
			in:   "repeating-radial-gradient(#fff,#000 10px),repeating-linear-gradient(45deg,#000 0 2px,#fff 2px 8px)",
			want: []Call{
				{KindRepeatingRadial, "#fff,#000 10px"},
				{KindRepeatingLinear, "45deg,#000 0 2px,#fff 2px 8px"},
			},
		},
		{
			name: "scan order preserved",
			in:   "linear-gradient(#e5e5e5 1px,transparent 1px),linear-gradient(90deg,#e5e5e5 1px,transparent 1px)",
			want: []Call{
				{KindLinear, "#e5e5e5 1px,transparent 1px"},
				{KindLinear, "90deg,#e5e5e5 1px,transparent 1px"},
			},
		},
		{
			name: "unterminated call dropped",
			in:   "linear-gradient(#fff,#000),radial-gradient(#fff",
			want: []Call{{KindLinear, "#fff,#000"}},
		},
		{name: "no gradients", in: "#ffffff", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel("circle at 50% 50%,rgba(0,0,0,0.5) 0%,#fff 100%")
	want := []string{"circle at 50% 50%", "rgba(0,0,0,0.5) 0%", "#fff 100%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTopLevel() = %q, want %q", got, want)
	}
}
