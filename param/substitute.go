package param

import (
	"fmt"
	"regexp"
)

// Marker is the comment that opts a script line into parameter substitution.
const Marker = "# PARAM"

// substitutedSuffix annotates a line whose right-hand side was replaced.
const substitutedSuffix = "# PARAM (Substituted)"

// markerPattern matches a bare-name assignment suffixed with the marker.
// Group 1 is the name; the leading whitespace before it is the indentation
// to preserve.
var markerPattern = regexp.MustCompile(`^(\s*)(\w+)\s*=\s*.*#\s*PARAM\s*$`)

// Set is one named collection of parameter values.
type Set map[string]Value

// SetFromJSON converts a JSON-decoded argument mapping into a Set, rejecting
// values outside the closed variant set.
func SetFromJSON(raw map[string]any) (Set, error) {
	set := make(Set, len(raw))
	for name, item := range raw {
		v, err := FromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		set[name] = v
	}
	return set, nil
}

// Substitute rewrites marked lines whose name has a value in params. A
// marked line with no supplied value is left untouched, as is every
// unmarked line, byte for byte. Indentation is preserved exactly.
func Substitute(lines []string, params Set) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		m := markerPattern.FindStringSubmatch(line)
		if m != nil {
			if value, ok := params[m[2]]; ok {
				out = append(out, fmt.Sprintf("%s%s = %s %s", m[1], m[2], value.Render(), substitutedSuffix))
				continue
			}
		}
		out = append(out, line)
	}
	return out
}
