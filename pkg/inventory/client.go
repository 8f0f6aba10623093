// Package inventory provides cached accessors for the remote inventory
// service's resource types, plus the mutation invalidators that keep the
// cache consistent after writes.
//
// Every read accessor follows one pattern: derive a cache key from the
// resource's key prefix and the accessor's own parameters, then delegate to
// the cache store with a TTL matching the resource's staleness tolerance.
// Cache-control flags never participate in keys.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/bigl34/inflow-cli/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TTL tiers. These values are part of the external contract.
const (
	// TTLShort is for volatile stock and transactional data.
	TTLShort = 300 * time.Second

	// TTLMedium is for semi-stable master data (products, customers).
	TTLMedium = 900 * time.Second

	// TTLLong is for near-static reference data (categories, locations).
	TTLLong = 3600 * time.Second
)

// Invoker is the remote call surface the accessors need.
type Invoker interface {
	Invoke(ctx context.Context, operation string, args map[string]any) (any, error)
}

// Config holds the inventory client configuration.
type Config struct {
	// Gateway performs remote operations. Required.
	Gateway Invoker

	// Cache is the store in front of the gateway. Required.
	Cache cache.Cache

	// Bypass skips the cache for every read (the --no-cache flag). Writes
	// still invalidate.
	Bypass bool
}

// Client composes the cache store and the remote gateway into cached
// per-resource accessors.
type Client struct {
	gw     Invoker
	cache  cache.Cache
	bypass bool
	logger zerolog.Logger
}

// New creates an inventory client.
func New(cfg Config) (*Client, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache store is required")
	}

	return &Client{
		gw:     cfg.Gateway,
		cache:  cfg.Cache,
		bypass: cfg.Bypass,
		logger: log.With().Str("component", "inventory").Logger(),
	}, nil
}

// Cache returns the underlying cache store (for the cache subcommands).
func (c *Client) Cache() cache.Cache {
	return c.cache
}

// cached derives a key from keyOp and params, then serves the operation
// through the cache store.
func (c *Client) cached(ctx context.Context, op, keyOp string, params map[string]any, ttl time.Duration) (any, error) {
	key := cache.Key(keyOp, params)
	return c.cache.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return c.gw.Invoke(ctx, op, params)
	}, cache.Options{TTL: ttl, Bypass: c.bypass})
}
