package gradient

import (
	"regexp"
	"strings"
)

// Call is one gradient function call found in a background string.
type Call struct {
	Kind Kind
	// Args is the text between the outer parentheses.
	Args string
}

// Function-name prefixes in match order. Repeating variants come first so
// "radial-gradient(" never matches inside "repeating-radial-gradient(".
var prefixes = []struct {
	name string
	kind Kind
}{
	{"repeating-radial-gradient(", KindRepeatingRadial},
	{"repeating-linear-gradient(", KindRepeatingLinear},
	{"radial-gradient(", KindRadial},
	{"linear-gradient(", KindLinear},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	commaSpace    = regexp.MustCompile(`\s*,\s*`)
	openSpace     = regexp.MustCompile(`\(\s+`)
	closeSpace    = regexp.MustCompile(`\s+\)`)
)

// Normalize collapses whitespace in a background string so the argument
// regexes see a single canonical form: newlines and runs of whitespace
// become one space, and spaces around commas and inside parentheses are
// dropped.
func Normalize(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = commaSpace.ReplaceAllString(s, ",")
	s = openSpace.ReplaceAllString(s, "(")
	s = closeSpace.ReplaceAllString(s, ")")
	return strings.TrimSpace(s)
}

// Scan extracts gradient function calls from s left to right, matching
// nested parentheses so rgba(...) arguments stay inside their gradient.
// An unterminated call ends the scan.
func Scan(s string) []Call {
	var calls []Call
	for i := 0; i < len(s); {
		kind, n, ok := matchPrefix(s[i:])
		if !ok {
			i++
			continue
		}
		end := closingParen(s, i+n)
		if end < 0 {
			break
		}
		calls = append(calls, Call{Kind: kind, Args: s[i+n : end]})
		i = end + 1
	}
	return calls
}

func matchPrefix(s string) (Kind, int, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p.name) {
			return p.kind, len(p.name), true
		}
	}
	return 0, 0, false
}

// closingParen returns the index of the parenthesis closing a call whose
// arguments start at from, or -1.
func closingParen(s string, from int) int {
	depth := 1
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// splitTopLevel splits s on commas that are not nested in parentheses.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
