package inventory

import (
	"context"

	"github.com/bigl34/inflow-cli/pkg/gateway"
)

// ListProducts returns the product catalog.
func (c *Client) ListProducts(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_products", "products", nil, TTLMedium)
}

// GetProduct returns one product by ID.
func (c *Client) GetProduct(ctx context.Context, productID string) (any, error) {
	if productID == "" {
		return nil, &gateway.ValidationError{Param: "product_id"}
	}
	params := map[string]any{"product_id": productID}
	return c.cached(ctx, "get_product", "product", params, TTLMedium)
}

// SearchProducts searches products by name or SKU fragment.
func (c *Client) SearchProducts(ctx context.Context, query string) (any, error) {
	if query == "" {
		return nil, &gateway.ValidationError{Param: "query"}
	}
	params := map[string]any{"query": query}
	return c.cached(ctx, "search_products", "products_search", params, TTLMedium)
}

// GetProductBOM returns the bill of materials for a product.
func (c *Client) GetProductBOM(ctx context.Context, productID string) (any, error) {
	if productID == "" {
		return nil, &gateway.ValidationError{Param: "product_id"}
	}
	params := map[string]any{"product_id": productID}
	return c.cached(ctx, "get_product_bom", "product_bom", params, TTLMedium)
}

// ListBOMs returns every bill of materials.
func (c *Client) ListBOMs(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_boms", "bom", nil, TTLMedium)
}

// GetStockLevels returns current stock levels, optionally filtered by
// location.
func (c *Client) GetStockLevels(ctx context.Context, locationID string) (any, error) {
	var params map[string]any
	if locationID != "" {
		params = map[string]any{"location_id": locationID}
	}
	return c.cached(ctx, "get_stock_levels", "stock", params, TTLShort)
}

// ListSalesOrders returns sales orders, optionally filtered by status.
func (c *Client) ListSalesOrders(ctx context.Context, status string) (any, error) {
	var params map[string]any
	if status != "" {
		params = map[string]any{"status": status}
	}
	return c.cached(ctx, "list_sales_orders", "sales_orders", params, TTLShort)
}

// GetSalesOrder returns one sales order by ID.
func (c *Client) GetSalesOrder(ctx context.Context, orderID string) (any, error) {
	if orderID == "" {
		return nil, &gateway.ValidationError{Param: "order_id"}
	}
	params := map[string]any{"order_id": orderID}
	return c.cached(ctx, "get_sales_order", "sales_order", params, TTLShort)
}

// ListPurchaseOrders returns purchase orders.
func (c *Client) ListPurchaseOrders(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_purchase_orders", "purchase_orders", nil, TTLShort)
}

// GetPurchaseOrder returns one purchase order by ID.
func (c *Client) GetPurchaseOrder(ctx context.Context, orderID string) (any, error) {
	if orderID == "" {
		return nil, &gateway.ValidationError{Param: "order_id"}
	}
	params := map[string]any{"order_id": orderID}
	return c.cached(ctx, "get_purchase_order", "purchase_order", params, TTLShort)
}

// ListCustomers returns the customer list.
func (c *Client) ListCustomers(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_customers", "customers", nil, TTLMedium)
}

// ListVendors returns the vendor list.
func (c *Client) ListVendors(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_vendors", "vendors", nil, TTLMedium)
}

// ListLocations returns warehouse locations.
func (c *Client) ListLocations(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_locations", "locations", nil, TTLLong)
}

// ListCategories returns product categories.
func (c *Client) ListCategories(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_categories", "categories", nil, TTLLong)
}

// ListAdjustmentReasons returns stock adjustment reasons.
func (c *Client) ListAdjustmentReasons(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_adjustment_reasons", "adjustment_reasons", nil, TTLLong)
}

// ListTransfers returns stock transfers.
func (c *Client) ListTransfers(ctx context.Context) (any, error) {
	return c.cached(ctx, "list_transfers", "transfers", nil, TTLShort)
}
