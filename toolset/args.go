package toolset

import (
	"fmt"
	"math"
)

// stringArg reads a string argument. Required arguments must be present
// and non-empty.
func stringArg(args map[string]any, key string, required bool) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("%w: %q is required", ErrInvalidArgument, key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidArgument, key, raw)
	}
	if required && s == "" {
		return "", fmt.Errorf("%w: %q must not be empty", ErrInvalidArgument, key)
	}
	return s, nil
}

// contentArg reads a string argument that must be present but may be empty.
func contentArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %q is required", ErrInvalidArgument, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidArgument, key, raw)
	}
	return s, nil
}

// intArg reads an optional integer argument, tolerating the float64 that
// JSON decoding produces. Missing yields zero.
func intArg(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %q must be an integer, got %v", ErrInvalidArgument, key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %q must be an integer, got %T", ErrInvalidArgument, key, raw)
	}
}

// mapArg reads an optional object argument. Missing yields nil.
func mapArg(args map[string]any, key string) (map[string]any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be an object, got %T", ErrInvalidArgument, key, raw)
	}
	return m, nil
}

// parameterSetsArg reads the execute_script parameter_sets argument.
// Missing yields nil, which the gateway treats as a single empty set.
func parameterSetsArg(args map[string]any, key string) ([]map[string]any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		sets := make([]map[string]any, len(v))
		for i, entry := range v {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %q[%d] must be an object, got %T", ErrInvalidArgument, key, i, entry)
			}
			sets[i] = m
		}
		return sets, nil
	default:
		return nil, fmt.Errorf("%w: %q must be an array of objects, got %T", ErrInvalidArgument, key, raw)
	}
}
