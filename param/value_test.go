package param

import (
	"errors"
	"testing"
)

func TestFromJSON_Render(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", float64(9), "9"},
		{"negative int", float64(-3), "-3"},
		{"float", 2.5, "2.5"},
		{"integral float stays numeric", float64(2), "2"},
		{"bool true", true, "True"},
		{"bool false", false, "False"},
		{"null", nil, "None"},
		{"string", "steel", "'steel'"},
		{"string with quote", "it's", `'it\'s'`},
		{"list of numbers", []any{float64(1), float64(2), 3.5}, "[1, 2, 3.5]"},
		{"mapping", map[string]any{"b": float64(2), "a": "x"}, "{'a': 'x', 'b': 2}"},
		{"nested", map[string]any{"dims": []any{float64(1), float64(2)}}, "{'dims': [1, 2]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromJSON(tt.in)
			if err != nil {
				t.Fatalf("FromJSON(%v) error = %v", tt.in, err)
			}
			if got := v.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromJSON_RejectsOutsideClosedSet(t *testing.T) {
	if _, err := FromJSON(struct{}{}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("FromJSON(struct{}{}) error = %v, want ErrUnsupportedType", err)
	}
	if _, err := FromJSON([]any{make(chan int)}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("FromJSON(list with chan) error = %v, want ErrUnsupportedType", err)
	}
}

func TestRenderFloat(t *testing.T) {
	v, err := FromJSON(map[string]any{"h": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	// Whole JSON numbers arrive as integers.
	if got := v.Render(); got != "{'h': 1}" {
		t.Errorf("Render() = %q, want %q", got, "{'h': 1}")
	}
}
