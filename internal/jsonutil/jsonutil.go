// Package jsonutil provides typed readers over the heterogeneous JSON-like
// values returned by the remote inventory service.
package jsonutil

// Map returns v as a map, or nil if it is not one.
func Map(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Slice returns v as a slice, or nil if it is not one.
func Slice(v any) []any {
	s, _ := v.([]any)
	return s
}

// Str returns the string at key in m, or "" when absent or not a string.
func Str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// SliceAt returns the slice at key in m, or nil when absent or not a slice.
func SliceAt(m map[string]any, key string) []any {
	return Slice(m[key])
}
