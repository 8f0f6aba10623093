package serials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bigl34/inflow-cli/internal/jsonutil"
	"github.com/bigl34/inflow-cli/pkg/cache"
	"github.com/bigl34/inflow-cli/pkg/inventory"
	"github.com/bigl34/inflow-cli/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Reserved cache keys for the two index variants. The indexes are
// independent entries and are never merged.
const (
	OrderIndexKey   = "serials_index_orders"
	ProductIndexKey = "serials_index_products"
)

// TTLs per index origin. Product-based data is cheaper to rebuild, so its
// index stays fresher.
const (
	OrderIndexTTL   = inventory.TTLMedium
	ProductIndexTTL = inventory.TTLShort
)

// DefaultOrderStatus is the sales order status scanned when none is given.
const DefaultOrderStatus = "fulfilled"

// pageSize is the fixed page size for index build scans.
const pageSize = 100

// BuildOptions controls an index build.
type BuildOptions struct {
	// Status filters the order scan. Empty selects DefaultOrderStatus.
	// Ignored by the product-based build.
	Status string

	// MaxRecords caps the number of scanned records. A cap falling
	// mid-page truncates to exactly the cap. Zero means no cap.
	MaxRecords int

	// Rebuild bypasses the cached index and forces a fresh build.
	Rebuild bool
}

// Builder constructs serial indexes by scanning the remote service.
type Builder struct {
	gw     inventory.Invoker
	cache  cache.Cache
	logger zerolog.Logger
}

// NewBuilder creates a serial index builder.
func NewBuilder(gw inventory.Invoker, store cache.Cache) *Builder {
	return &Builder{
		gw:     gw,
		cache:  store,
		logger: log.With().Str("component", "serials").Logger(),
	}
}

// OrderIndex returns the order-based index, building it if the cached copy
// is missing or stale.
func (b *Builder) OrderIndex(ctx context.Context, opts BuildOptions) (*Index, error) {
	value, err := b.cache.GetOrFetch(ctx, OrderIndexKey, func(ctx context.Context) (any, error) {
		return b.buildFromOrders(ctx, opts)
	}, cache.Options{TTL: OrderIndexTTL, Bypass: opts.Rebuild})
	if err != nil {
		return nil, err
	}
	return decodeIndex(value)
}

// ProductIndex returns the product-based index, building it if the cached
// copy is missing or stale.
func (b *Builder) ProductIndex(ctx context.Context, opts BuildOptions) (*Index, error) {
	value, err := b.cache.GetOrFetch(ctx, ProductIndexKey, func(ctx context.Context) (any, error) {
		return b.buildFromProducts(ctx, opts)
	}, cache.Options{TTL: ProductIndexTTL, Bypass: opts.Rebuild})
	if err != nil {
		return nil, err
	}
	return decodeIndex(value)
}

// buildFromOrders pages through sales orders of the requested status and
// extracts serials from their nested line sources.
func (b *Builder) buildFromOrders(ctx context.Context, opts BuildOptions) (*Index, error) {
	status := opts.Status
	if status == "" {
		status = DefaultOrderStatus
	}

	start := time.Now()
	pager := pagination.New(pageSize, opts.MaxRecords)
	orders, err := pager.FetchAll(ctx, func(ctx context.Context, skip, count int) ([]any, error) {
		result, err := b.gw.Invoke(ctx, "list_sales_orders", map[string]any{
			"status": status,
			"skip":   skip,
			"count":  count,
		})
		if err != nil {
			return nil, err
		}
		return jsonutil.Slice(result), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sales orders: %w", err)
	}

	idx := &Index{
		Records:       make(map[string]Record),
		Origin:        OriginOrders,
		BuiltAt:       time.Now(),
		OrdersScanned: len(orders),
	}

	for _, item := range orders {
		order := jsonutil.Map(item)
		if order == nil {
			continue
		}
		b.mergeOrder(idx, order)
	}

	b.logger.Info().
		Int("orders", idx.OrdersScanned).
		Int("serials", idx.Size()).
		Dur("duration", time.Since(start)).
		Msg("Built order-based serial index")

	return idx, nil
}

// mergeOrder extracts serials from one order and merges them into the
// index. Within the order, sources are scanned in strict priority order and
// lower-priority repeats are recorded as duplicate sources. Across orders,
// the first-processed order wins: a serial already indexed is never
// overwritten, repeats indicate a data anomaly and are logged.
func (b *Builder) mergeOrder(idx *Index, order map[string]any) {
	orderID := jsonutil.Str(order, "order_id")
	orderNumber := jsonutil.Str(order, "order_number")
	orderDate := jsonutil.Str(order, "order_date")

	perOrder := make(map[string]*Record)
	var ordered []string

	for _, src := range extractionOrder {
		for _, lineItem := range jsonutil.SliceAt(order, src.field) {
			line := jsonutil.Map(lineItem)
			if line == nil {
				continue
			}
			productID := jsonutil.Str(line, "product_id")
			productName := jsonutil.Str(line, "product_name")

			for _, raw := range jsonutil.SliceAt(line, "serial_numbers") {
				serial, ok := raw.(string)
				if !ok {
					continue
				}
				norm := Normalize(serial)
				if norm == "" {
					continue
				}

				if existing, ok := perOrder[norm]; ok {
					// Same serial in a lower-priority source of this order.
					if existing.Source != src.source {
						existing.DuplicateSources = appendSource(existing.DuplicateSources, src.source)
					}
					continue
				}

				perOrder[norm] = &Record{
					Serial:      norm,
					ProductID:   productID,
					ProductName: productName,
					OrderID:     orderID,
					OrderNumber: orderNumber,
					OrderDate:   orderDate,
					Source:      src.source,
				}
				ordered = append(ordered, norm)
			}
		}
	}

	for _, norm := range ordered {
		if _, exists := idx.Records[norm]; exists {
			b.logger.Warn().
				Str("serial", norm).
				Str("order_id", orderID).
				Msg("Serial already indexed by an earlier order, keeping first occurrence")
			continue
		}
		idx.Records[norm] = *perOrder[norm]
	}
}

// buildFromProducts pages through serialized inventory records, which carry
// stock status and location directly, without scanning orders.
func (b *Builder) buildFromProducts(ctx context.Context, opts BuildOptions) (*Index, error) {
	start := time.Now()
	pager := pagination.New(pageSize, opts.MaxRecords)
	rows, err := pager.FetchAll(ctx, func(ctx context.Context, skip, count int) ([]any, error) {
		result, err := b.gw.Invoke(ctx, "list_serialized_inventory", map[string]any{
			"skip":  skip,
			"count": count,
		})
		if err != nil {
			return nil, err
		}
		return jsonutil.Slice(result), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan serialized inventory: %w", err)
	}

	idx := &Index{
		Records:         make(map[string]Record),
		Origin:          OriginProducts,
		BuiltAt:         time.Now(),
		ProductsScanned: len(rows),
	}

	for _, item := range rows {
		row := jsonutil.Map(item)
		if row == nil {
			continue
		}
		norm := Normalize(jsonutil.Str(row, "serial"))
		if norm == "" {
			continue
		}
		if _, exists := idx.Records[norm]; exists {
			b.logger.Warn().
				Str("serial", norm).
				Msg("Duplicate serial in inventory scan, keeping first occurrence")
			continue
		}
		idx.Records[norm] = Record{
			Serial:      norm,
			ProductID:   jsonutil.Str(row, "product_id"),
			ProductName: jsonutil.Str(row, "product_name"),
			StockStatus: jsonutil.Str(row, "stock_status"),
			Location:    jsonutil.Str(row, "location"),
			Source:      SourceInventory,
		}
	}

	b.logger.Info().
		Int("records", idx.ProductsScanned).
		Int("serials", idx.Size()).
		Dur("duration", time.Since(start)).
		Msg("Built product-based serial index")

	return idx, nil
}

func appendSource(sources []Source, s Source) []Source {
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	return append(sources, s)
}

// decodeIndex recovers an *Index from a cached value. A memory-backed store
// returns the *Index as stored; a Redis-backed store returns the JSON round
// trip, which is re-decoded here.
func decodeIndex(value any) (*Index, error) {
	switch v := value.(type) {
	case *Index:
		return v, nil
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encode cached index: %w", err)
		}
		var idx Index
		if err := json.Unmarshal(data, &idx); err != nil {
			return nil, fmt.Errorf("decode cached index: %w", err)
		}
		if idx.Records == nil {
			idx.Records = make(map[string]Record)
		}
		return &idx, nil
	default:
		return nil, fmt.Errorf("unexpected cached index type %T", value)
	}
}
