// internal/stats/options.go
package stats

import (
	"fmt"
	"math"
)

// Options carries free-form collector settings, typically decoded from YAML.
type Options map[string]any

// String returns opts[key] or def when absent.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q: want string, got %T", key, v)
	}
	return s, nil
}

// Int returns opts[key] or def when absent. Whole floats are accepted.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("option %q: %v is not a whole number", key, x)
		}
		return int(x), nil
	}
	return 0, fmt.Errorf("option %q: want integer, got %T", key, v)
}

// Strings returns opts[key] as a string list; a single string is a list of one.
func (o Options) Strings(key string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("option %q: want string list, got element %T", key, e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("option %q: want string list, got %T", key, v)
}
