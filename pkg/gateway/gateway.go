// Package gateway invokes named operations against the remote inventory
// service and normalizes their results.
//
// The gateway speaks an RPC-style envelope: every operation is a POST to
// {base}/rpc carrying the operation name and an argument map, and the
// response carries either a remote-flagged error or textual content that is
// decoded into a JSON-like value.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bigl34/inflow-cli/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for gateway operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inflow_requests_total",
		Help: "Total remote operations by name and status",
	}, []string{"operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inflow_request_duration_seconds",
		Help:    "Remote operation duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inflow_errors_total",
		Help: "Total remote operation errors by class",
	}, []string{"class"})
)

// Config holds the gateway configuration.
type Config struct {
	// BaseURL of the remote inventory service.
	BaseURL string

	// APIKey authenticates requests. Required at connect time.
	APIKey string

	// CompanyID selects the tenant. Required at connect time.
	CompanyID string

	// Timeout per remote call.
	Timeout time.Duration

	// UserAgent sent with every request.
	UserAgent string
}

// DefaultConfig returns a gateway configuration with safe defaults.
func DefaultConfig(baseURL, apiKey, companyID string) Config {
	return Config{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		CompanyID: companyID,
		Timeout:   30 * time.Second,
		UserAgent: "inflow-cli/0.1.0",
	}
}

// Gateway performs named operations against the remote inventory service.
type Gateway struct {
	config     Config
	httpClient *http.Client
	tracker    *ratelimit.Tracker
	logger     zerolog.Logger

	mu        sync.Mutex
	connected bool
}

// New creates a gateway. Credentials are not validated here; the gateway
// connects lazily on first use.
func New(cfg Config) *Gateway {
	logger := log.With().Str("component", "gateway").Logger()

	return &Gateway{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracker: ratelimit.NewTracker(logger),
		logger:  logger,
	}
}

// connect validates credentials on first use. It is idempotent: repeated
// calls after the first success are no-ops.
func (g *Gateway) connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		return nil
	}

	if g.config.APIKey == "" {
		return &ConfigurationError{Message: "API key is not set (INFLOW_API_KEY)"}
	}
	if g.config.CompanyID == "" {
		return &ConfigurationError{Message: "company ID is not set (INFLOW_COMPANY_ID)"}
	}
	if g.config.BaseURL == "" {
		return &ConfigurationError{Message: "base URL is not set"}
	}

	g.connected = true
	g.logger.Info().
		Str("base_url", g.config.BaseURL).
		Str("company_id", g.config.CompanyID).
		Msg("Connected to inventory service")
	return nil
}

// envelope is the wire format of a remote operation response.
type envelope struct {
	// Error is set when the remote explicitly flags the operation as
	// failed. The message is passed through verbatim.
	Error string `json:"error,omitempty"`

	// Content is the textual result payload.
	Content string `json:"content"`
}

// Invoke performs the named operation with the given arguments and returns
// a normalized JSON-like value.
//
// It fails with *ConfigurationError if credentials are absent at connect
// time and with *OperationError when the remote flags an error result.
// Transport failures of the server, rate-limit and network classes are
// retried with backoff before propagating as *TransportError.
func (g *Gateway) Invoke(ctx context.Context, operation string, args map[string]any) (any, error) {
	if err := g.connect(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	if !g.tracker.ShouldAllowRequest() {
		requestsTotal.WithLabelValues(operation, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	g.logger.Debug().
		Str("operation", operation).
		Int("args", len(args)).
		Msg("Invoking remote operation")

	var env *envelope
	err := retryWithBackoff(ctx, func() error {
		var reqErr error
		env, reqErr = g.doRequest(ctx, operation, args)
		return reqErr
	}, classifyError)
	if err != nil {
		return nil, err
	}

	if env.Error != "" {
		errorsTotal.WithLabelValues("operation").Inc()
		requestsTotal.WithLabelValues(operation, "error").Inc()
		g.logger.Warn().
			Str("operation", operation).
			Str("message", env.Error).
			Msg("Remote operation failed")
		return nil, &OperationError{Operation: operation, Message: env.Error}
	}

	requestsTotal.WithLabelValues(operation, "ok").Inc()
	return decodeContent(env.Content), nil
}

// doRequest performs one HTTP round trip and decodes the envelope.
func (g *Gateway) doRequest(ctx context.Context, operation string, args map[string]any) (*envelope, error) {
	payload := map[string]any{
		"operation":  operation,
		"company_id": g.config.CompanyID,
	}
	if len(args) > 0 {
		payload["arguments"] = args
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(g.config.BaseURL, "/") + "/rpc"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.config.UserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(operation, "network_error").Inc()
		return nil, &TransportError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if err := g.tracker.UpdateFromHeaders(resp.Header); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TransportError{Class: ErrorClassNetwork, Message: "read response body", Err: err}
	}

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		// Not an envelope; treat the whole body as content.
		return &envelope{Content: string(respBody)}, nil
	}
	return &env, nil
}

// decodeContent parses textual content as structured data, falling back to
// the raw text if parsing fails. This fallback never fails.
func decodeContent(content string) any {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return value
	}
	return content
}

// classifyStatus categorizes an HTTP status for retry and observability.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyError extracts the error class from a transport failure.
func classifyError(err error) ErrorClass {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class
	}
	return ErrorClassNetwork
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (g *Gateway) SetHTTPClient(client *http.Client) {
	g.httpClient = client
}

// Tracker returns the rate limit tracker (for testing and the serve
// command's health output).
func (g *Gateway) Tracker() *ratelimit.Tracker {
	return g.tracker
}
