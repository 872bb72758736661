package gremlin

import "strings"

// CleanValueMap flattens Gremlin valueMap results: every property arrives
// as a single-element list, which this collapses to the bare value. Items
// that are not maps pass through unchanged.
func CleanValueMap(results []any) []any {
	cleaned := make([]any, 0, len(results))
	for _, item := range results {
		m, ok := item.(map[string]any)
		if !ok {
			cleaned = append(cleaned, item)
			continue
		}
		clean := make(map[string]any, len(m))
		for key, value := range m {
			if list, ok := value.([]any); ok && len(list) == 1 {
				clean[key] = list[0]
			} else {
				clean[key] = value
			}
		}
		cleaned = append(cleaned, clean)
	}
	return cleaned
}

// Unlist collapses a single-element list to its element. Gremlin valueMap
// wraps every property this way.
func Unlist(v any) any {
	if list, ok := v.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return v
}

// EscapeString escapes single quotes so a value can be embedded in a
// single-quoted Gremlin string literal.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
