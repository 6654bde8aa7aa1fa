package vectorstore

import (
	"fmt"
	"reflect"
	"sort"
)

// Matches evaluates a metadata filter against a payload. A plain value is an
// equality test; a map may hold "$eq", "$ne", "$in" or "$nin". When the
// payload field is a list, equality means membership. A nil or empty filter
// matches everything.
func Matches(payload map[string]any, filter map[string]any) bool {
	for key, cond := range filter {
		value, present := payload[key]
		ops, isOps := cond.(map[string]any)
		if !isOps {
			if !present || !equalOrContains(value, cond) {
				return false
			}
			continue
		}
		for op, arg := range ops {
			switch op {
			case "$eq":
				if !present || !equalOrContains(value, arg) {
					return false
				}
			case "$ne":
				if present && equalOrContains(value, arg) {
					return false
				}
			case "$in":
				if !present || !anyOf(value, arg) {
					return false
				}
			case "$nin":
				if present && anyOf(value, arg) {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

// ValidateFilter rejects operators Matches does not understand.
func ValidateFilter(filter map[string]any) error {
	for key, cond := range filter {
		ops, ok := cond.(map[string]any)
		if !ok {
			continue
		}
		for op := range ops {
			switch op {
			case "$eq", "$ne", "$in", "$nin":
			default:
				return fmt.Errorf("filter %s: unsupported operator %s", key, op)
			}
		}
	}
	return nil
}

// FilterKeys returns the filter keys in sorted order.
func FilterKeys(filter map[string]any) []string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalOrContains(value, want any) bool {
	if list, ok := asList(value); ok {
		for _, item := range list {
			if scalarEqual(item, want) {
				return true
			}
		}
		return false
	}
	return scalarEqual(value, want)
}

func anyOf(value, args any) bool {
	list, ok := asList(args)
	if !ok {
		return false
	}
	for _, arg := range list {
		if equalOrContains(value, arg) {
			return true
		}
	}
	return false
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// scalarEqual compares numbers by value regardless of their Go type, so a
// JSON-decoded float64 equals an int literal.
func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
