package rules

import "strconv"

// Flatten collapses a nested payload into a single map keyed by dot-paths.
// Nested maps merge into the parent; arrays are kept whole at their own key
// and additionally expanded per index, so operators can target either the
// whole array (contains/in) or one element path (items.0.sku).
func Flatten(data map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", data)
	return out
}

func flattenInto(out map[string]any, prefix string, data map[string]any) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flattenValue(out, key, v)
	}
}

func flattenValue(out map[string]any, key string, v any) {
	switch val := v.(type) {
	case map[string]any:
		flattenInto(out, key, val)
	case []any:
		out[key] = val
		for i, item := range val {
			flattenValue(out, key+"."+strconv.Itoa(i), item)
		}
	default:
		out[key] = v
	}
}
