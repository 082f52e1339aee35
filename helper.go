// File: lixenwraith/settings/helper.go
package settings

import "strings"

// flattenMap converts a nested map[string]any to a flat map[string]any with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		if nextMap, isMap := current[segment].(map[string]any); isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// copyValue deep-copies nested maps and slices so callers cannot mutate
// loaded content.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}

// navigateToPath traverses nested map to reach the specified path
func navigateToPath(nested map[string]any, path string) (any, bool) {
	path = strings.TrimSuffix(path, ".")
	if path == "" {
		return nested, true
	}

	current := any(nested)
	for _, segment := range strings.Split(path, ".") {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, exists := currentMap[segment]
		if !exists {
			return nil, false
		}
		current = value
	}

	return current, true
}

// isValidPath checks every dot-separated segment of path.
func isValidPath(path string) bool {
	if path == "" {
		return false
	}
	for _, segment := range strings.Split(path, ".") {
		if !isValidKeySegment(segment) {
			return false
		}
	}
	return true
}

// isValidKeySegment checks if a single path segment is a valid TOML bare key.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isUnderscore := r == '_'
		isDash := r == '-'

		if !(isLetter || isDigit || isUnderscore || isDash) {
			return false
		}
	}
	return true
}
