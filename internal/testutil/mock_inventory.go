// Package testutil provides testing utilities for the inflow client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock remote operation.
type MockResponse struct {
	// Content is the textual result payload (usually JSON).
	Content string

	// Error, when set, flags the operation as failed with this message.
	Error string

	// StatusCode overrides the HTTP status (0 means 200).
	StatusCode int

	// Headers are extra response headers (rate limit headers etc).
	Headers map[string]string

	// Delay postpones the response.
	Delay time.Duration
}

// Call records one received operation invocation.
type Call struct {
	Operation string
	Arguments map[string]any
	CompanyID string
}

// MockInventory is a configurable mock inventory RPC server for testing.
type MockInventory struct {
	server *httptest.Server

	mu       sync.RWMutex
	handlers map[string]func(args map[string]any) MockResponse
	calls    []Call
}

// NewMockInventory creates a new mock inventory server.
func NewMockInventory() *MockInventory {
	mock := &MockInventory{
		handlers: make(map[string]func(args map[string]any) MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Operation string         `json:"operation"`
			Arguments map[string]any `json:"arguments"`
			CompanyID string         `json:"company_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error": "bad request"}`, http.StatusBadRequest)
			return
		}

		mock.mu.Lock()
		mock.calls = append(mock.calls, Call{
			Operation: req.Operation,
			Arguments: req.Arguments,
			CompanyID: req.CompanyID,
		})
		handler, exists := mock.handlers[req.Operation]
		mock.mu.Unlock()

		resp := MockResponse{Content: "{}"}
		if exists {
			resp = handler(req.Arguments)
		}

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Remaining", "100")
		w.Header().Set("X-RateLimit-Reset", "60")
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)

		if status >= 400 {
			w.Write([]byte(resp.Content))
			return
		}

		body, _ := json.Marshal(map[string]string{
			"error":   resp.Error,
			"content": resp.Content,
		})
		w.Write(body)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockInventory) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockInventory) Close() {
	m.server.Close()
}

// Reset clears recorded calls.
func (m *MockInventory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// SetHandler sets a dynamic handler for an operation.
func (m *MockInventory) SetHandler(operation string, handler func(args map[string]any) MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[operation] = handler
}

// SetResponse configures a fixed response for an operation.
func (m *MockInventory) SetResponse(operation string, resp MockResponse) {
	m.SetHandler(operation, func(map[string]any) MockResponse {
		return resp
	})
}

// RequestCount returns the total number of operations received.
func (m *MockInventory) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// CallsFor returns the number of invocations of one operation.
func (m *MockInventory) CallsFor(operation string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, call := range m.calls {
		if call.Operation == operation {
			n++
		}
	}
	return n
}

// LastCall returns the most recent invocation of an operation, or nil.
func (m *MockInventory) LastCall(operation string) *Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Operation == operation {
			call := m.calls[i]
			return &call
		}
	}
	return nil
}

// IntArg reads an integer argument from a JSON-decoded argument map.
func IntArg(args map[string]any, name string) int {
	if f, ok := args[name].(float64); ok {
		return int(f)
	}
	return 0
}
