package inventory

import (
	"context"

	"github.com/bigl34/inflow-cli/internal/jsonutil"
	"github.com/bigl34/inflow-cli/pkg/gateway"
)

// invalidationPatterns maps a resource family to the cache key prefixes a
// write to that family purges. A write purges the family's list, detail and
// search views plus any derived views that embed its fields (a product
// write purges BOM views since BOM responses embed product fields).
//
// The prefixes are part of the external contract and are purged only after
// a successful write; a failed write leaves the cache untouched.
var invalidationPatterns = map[string][]string{
	"product":        {"^products", "^product:", "^products_search", "^product_bom", "^bom"},
	"stock":          {"^stock"},
	"sales_order":    {"^sales_orders", "^sales_order:", "^stock"},
	"purchase_order": {"^purchase_orders", "^purchase_order:", "^vendors"},
	"customer":       {"^customers"},
	"transfer":       {"^transfers", "^stock"},
}

// purgeFamily removes every cache entry belonging to a resource family.
// Purge failures are logged, not returned: the write itself succeeded.
func (c *Client) purgeFamily(ctx context.Context, family string) {
	for _, pattern := range invalidationPatterns[family] {
		n, err := c.cache.InvalidatePattern(ctx, pattern)
		if err != nil {
			c.logger.Warn().Err(err).Str("pattern", pattern).Msg("Cache purge failed")
			continue
		}
		if n > 0 {
			c.logger.Debug().Str("pattern", pattern).Int("removed", n).Msg("Purged cache entries")
		}
	}
}

// write performs a remote mutation and purges the affected family on
// success.
func (c *Client) write(ctx context.Context, op, family string, args map[string]any) (any, error) {
	result, err := c.gw.Invoke(ctx, op, args)
	if err != nil {
		return nil, err
	}
	c.purgeFamily(ctx, family)
	return result, nil
}

// CreateProduct creates a product from the given fields.
func (c *Client) CreateProduct(ctx context.Context, fields map[string]any) (any, error) {
	return c.write(ctx, "create_product", "product", fields)
}

// UpdateProduct applies the given field changes to a product.
//
// The update needs a fresh copy of the product to merge into, so caching is
// disabled for the duration and re-enabled on exit even when the read or
// write fails.
func (c *Client) UpdateProduct(ctx context.Context, productID string, fields map[string]any) (any, error) {
	if productID == "" {
		return nil, &gateway.ValidationError{Param: "product_id"}
	}

	c.cache.Disable()
	defer c.cache.Enable()

	current, err := c.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	for k, v := range jsonutil.Map(current) {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	merged["product_id"] = productID

	return c.write(ctx, "update_product", "product", merged)
}

// AdjustStock records a stock adjustment for a product.
func (c *Client) AdjustStock(ctx context.Context, productID string, args map[string]any) (any, error) {
	if productID == "" {
		return nil, &gateway.ValidationError{Param: "product_id"}
	}
	merged := map[string]any{"product_id": productID}
	for k, v := range args {
		merged[k] = v
	}
	return c.write(ctx, "adjust_stock", "stock", merged)
}

// CreateSalesOrder creates a sales order.
func (c *Client) CreateSalesOrder(ctx context.Context, fields map[string]any) (any, error) {
	return c.write(ctx, "create_sales_order", "sales_order", fields)
}

// UpdateSalesOrder applies field changes to a sales order.
func (c *Client) UpdateSalesOrder(ctx context.Context, orderID string, fields map[string]any) (any, error) {
	if orderID == "" {
		return nil, &gateway.ValidationError{Param: "order_id"}
	}
	merged := map[string]any{"order_id": orderID}
	for k, v := range fields {
		merged[k] = v
	}
	return c.write(ctx, "update_sales_order", "sales_order", merged)
}

// CreatePurchaseOrder creates a purchase order.
func (c *Client) CreatePurchaseOrder(ctx context.Context, fields map[string]any) (any, error) {
	return c.write(ctx, "create_purchase_order", "purchase_order", fields)
}

// UpdatePurchaseOrder applies field changes to a purchase order.
func (c *Client) UpdatePurchaseOrder(ctx context.Context, orderID string, fields map[string]any) (any, error) {
	if orderID == "" {
		return nil, &gateway.ValidationError{Param: "order_id"}
	}
	merged := map[string]any{"order_id": orderID}
	for k, v := range fields {
		merged[k] = v
	}
	return c.write(ctx, "update_purchase_order", "purchase_order", merged)
}

// CreateCustomer creates a customer.
func (c *Client) CreateCustomer(ctx context.Context, fields map[string]any) (any, error) {
	return c.write(ctx, "create_customer", "customer", fields)
}

// CreateTransfer creates a stock transfer between locations.
func (c *Client) CreateTransfer(ctx context.Context, fields map[string]any) (any, error) {
	return c.write(ctx, "create_transfer", "transfer", fields)
}
