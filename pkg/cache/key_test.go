package cache

import (
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		params    map[string]any
		want      string
	}{
		{
			name:      "no params",
			operation: "products",
			params:    nil,
			want:      "products",
		},
		{
			name:      "empty params",
			operation: "products",
			params:    map[string]any{},
			want:      "products",
		},
		{
			name:      "single param",
			operation: "product",
			params:    map[string]any{"id": "PRD-1"},
			want:      "product:id=PRD-1",
		},
		{
			name:      "multiple params sorted",
			operation: "stock",
			params:    map[string]any{"location": "WH-1", "count": 50},
			want:      "stock:count=50:location=WH-1",
		},
		{
			name:      "nil value skipped",
			operation: "products",
			params:    map[string]any{"query": "bolt", "category": nil},
			want:      "products:query=bolt",
		},
		{
			name:      "numeric values",
			operation: "sales_orders",
			params:    map[string]any{"skip": 0, "count": 100},
			want:      "sales_orders:count=100:skip=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.operation, tt.params)
			if got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKey_InsertionOrder ensures the key is independent of map insertion
// order.
func TestKey_InsertionOrder(t *testing.T) {
	a := map[string]any{}
	a["a"] = 1
	a["b"] = 2

	b := map[string]any{}
	b["b"] = 2
	b["a"] = 1

	if Key("x", a) != Key("x", b) {
		t.Errorf("Key with reversed insertion order differs: %q vs %q", Key("x", a), Key("x", b))
	}
}

// TestKey_NilEqualsAbsent ensures a present-but-nil parameter produces the
// same key as omitting it, so callers passing full option structs do not
// fragment the cache.
func TestKey_NilEqualsAbsent(t *testing.T) {
	withNil := Key("x", map[string]any{"a": 1, "b": nil})
	without := Key("x", map[string]any{"a": 1})

	if withNil != without {
		t.Errorf("Key with nil param %q != key without %q", withNil, without)
	}
}

// TestKey_Determinism ensures same input always produces the same key.
func TestKey_Determinism(t *testing.T) {
	params := map[string]any{
		"status": "fulfilled",
		"skip":   200,
		"count":  100,
	}

	first := Key("sales_orders", params)
	for i := 0; i < 10; i++ {
		if got := Key("sales_orders", params); got != first {
			t.Errorf("iteration %d = %v, want %v (not deterministic)", i, got, first)
		}
	}
}
