// Package extract selects sub-values from response payloads and flattens them into fields.
package extract

import (
	"strings"

	"github.com/raphaelgruber/agentwatch/internal/payload"
)

// RootMarker is the path that selects the whole payload.
const RootMarker = "$"

// Path returns the sub-value addressed by a dotted key path.
// Segments are object keys only. If any segment is missing, empty, or lands on a
// non-object, the original value is returned unchanged.
func Path(v payload.Value, path string) payload.Value {
	path = strings.TrimSpace(path)
	if path == RootMarker {
		return v
	}
	path = strings.TrimPrefix(path, RootMarker+".")
	if path == "" {
		return v
	}

	current := v
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return v
		}
		next, ok := current.Get(segment)
		if !ok {
			return v
		}
		current = next
	}
	return current
}
