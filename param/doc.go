// Package param implements parameter substitution for construction scripts.
//
// A script opts a line into substitution by suffixing a bare-name assignment
// with the [Marker] comment. When a parameter set supplies a value for that
// name, the right-hand side is replaced with a rendered source literal and
// the marker is annotated "(Substituted)"; otherwise the line is untouched.
// Lines without the marker are never modified, even when a name collides
// with a supplied parameter.
//
// Parameter values are a closed variant set ([Value]): null, bool, number,
// string, list, and string-keyed mapping. Each variant has exactly one
// literal rendering, so substituted values round-trip through the script.
package param
