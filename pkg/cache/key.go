package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Key derives a deterministic cache key from an operation name and its
// parameters.
// Format: operation:param1=val1:param2=val2
//
// Parameter names are sorted so insertion order never changes the key.
// Parameters with a nil value are skipped entirely, so a caller passing a
// full options struct with unset optional fields produces the same key as a
// caller omitting them.
//
// Example:
//
//	Key("product", map[string]any{"id": "PRD-1"}) == "product:id=PRD-1"
func Key(operation string, params map[string]any) string {
	parts := []string{operation}

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name, value := range params {
			if value == nil {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%v", name, params[name]))
		}
	}

	return strings.Join(parts, ":")
}
