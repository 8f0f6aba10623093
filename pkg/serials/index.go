// Package serials reconstructs a search-by-serial-number capability the
// remote inventory service does not provide.
//
// Serial identifiers are denormalized into nested line-item structures, so
// the package scans a bulk collection (sales orders or serialized
// inventory), extracts the serials, and builds a consolidated index keyed by
// normalized serial. The index is a derived value: it is rebuilt on demand
// and cached with a TTL like any other fetch.
package serials

import (
	"strings"
	"time"
)

// Normalize trims surrounding whitespace and upper-cases a serial number.
// Every serial is normalized before being indexed or compared, and lookups
// normalize the query the same way.
func Normalize(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// Origin identifies which build strategy produced an index.
type Origin string

const (
	// OriginOrders marks an index built by scanning sales orders. Slower,
	// but records carry order context.
	OriginOrders Origin = "orders"

	// OriginProducts marks an index built from per-product serialized
	// inventory. Faster and fresher, but without order context.
	OriginProducts Origin = "products"
)

// Source identifies where within an order a serial was extracted from.
// Sources are tried in strict priority order.
type Source string

const (
	// SourcePackLines is the most authoritative source: serials recorded
	// when the order was packed.
	SourcePackLines Source = "pack_lines"

	// SourcePickLines is the fallback when pack lines carry no serials.
	SourcePickLines Source = "pick_lines"

	// SourceOrderLines is the last resort: serials on the raw order lines.
	SourceOrderLines Source = "order_lines"

	// SourceInventory marks serials from the serialized inventory scan.
	SourceInventory Source = "inventory"
)

// extractionOrder is the fixed priority in which an order's nested sources
// are scanned.
var extractionOrder = []struct {
	source Source
	field  string
}{
	{SourcePackLines, "pack_lines"},
	{SourcePickLines, "pick_lines"},
	{SourceOrderLines, "lines"},
}

// Record is one indexed serial number with its context.
type Record struct {
	Serial      string `json:"serial"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	OrderDate   string `json:"order_date,omitempty"`
	StockStatus string `json:"stock_status,omitempty"`
	Location    string `json:"location,omitempty"`
	Source      Source `json:"source"`

	// DuplicateSources lists lower-priority sources within the same order
	// that also carried this serial. Duplicates across orders are not
	// recorded; the first-processed order wins.
	DuplicateSources []Source `json:"duplicate_sources,omitempty"`
}

// Index maps normalized serials to their records. An index is built
// transiently, cached as a single entry, and shared by all searches until
// it expires.
type Index struct {
	Records map[string]Record `json:"records"`
	Origin  Origin            `json:"origin"`
	BuiltAt time.Time         `json:"built_at"`

	// OrdersScanned and ProductsScanned report the size of the scan that
	// produced this index, depending on its origin.
	OrdersScanned   int `json:"orders_scanned,omitempty"`
	ProductsScanned int `json:"products_scanned,omitempty"`
}

// Lookup returns the record for a serial, normalizing the query first.
func (idx *Index) Lookup(serial string) (Record, bool) {
	rec, ok := idx.Records[Normalize(serial)]
	return rec, ok
}

// Size returns the number of indexed serials.
func (idx *Index) Size() int {
	return len(idx.Records)
}
