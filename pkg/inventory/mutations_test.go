package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/bigl34/inflow-cli/internal/testutil"
	"github.com/bigl34/inflow-cli/pkg/gateway"
)

func TestAdjustStock_PurgesStockFamily(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	mock.SetResponse("get_stock_levels", testutil.MockResponse{Content: `{"on_hand": 10}`})
	mock.SetResponse("adjust_stock", testutil.MockResponse{Content: `{"ok": true}`})

	client := newTestClient(t, mock, false)
	ctx := context.Background()

	// Warm the stock cache.
	if _, err := client.GetStockLevels(ctx, ""); err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if _, err := client.GetStockLevels(ctx, ""); err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if mock.CallsFor("get_stock_levels") != 1 {
		t.Fatalf("warm-up calls = %d, want 1", mock.CallsFor("get_stock_levels"))
	}

	if _, err := client.AdjustStock(ctx, "PRD-1", map[string]any{"quantity": -2, "reason": "damage"}); err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}

	// The write purged the stock family; the next read refetches.
	if _, err := client.GetStockLevels(ctx, ""); err != nil {
		t.Fatalf("GetStockLevels after write failed: %v", err)
	}
	if mock.CallsFor("get_stock_levels") != 2 {
		t.Errorf("calls after write = %d, want 2", mock.CallsFor("get_stock_levels"))
	}
}

func TestCreateProduct_PurgesProductViewsOnly(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	mock.SetResponse("list_products", testutil.MockResponse{Content: `[]`})
	mock.SetResponse("list_customers", testutil.MockResponse{Content: `[]`})
	mock.SetResponse("create_product", testutil.MockResponse{Content: `{"product_id": "PRD-9"}`})

	client := newTestClient(t, mock, false)
	ctx := context.Background()

	if _, err := client.ListProducts(ctx); err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if _, err := client.ListCustomers(ctx); err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}

	if _, err := client.CreateProduct(ctx, map[string]any{"name": "Nut M6"}); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	if _, err := client.ListProducts(ctx); err != nil {
		t.Fatalf("ListProducts after write failed: %v", err)
	}
	if _, err := client.ListCustomers(ctx); err != nil {
		t.Fatalf("ListCustomers after write failed: %v", err)
	}

	if mock.CallsFor("list_products") != 2 {
		t.Errorf("list_products calls = %d, want 2 (purged by the write)", mock.CallsFor("list_products"))
	}
	if mock.CallsFor("list_customers") != 1 {
		t.Errorf("list_customers calls = %d, want 1 (unrelated family survives)", mock.CallsFor("list_customers"))
	}
}

func TestWrite_FailureLeavesCacheIntact(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	mock.SetResponse("list_products", testutil.MockResponse{Content: `[]`})
	mock.SetResponse("create_product", testutil.MockResponse{Error: "duplicate SKU"})

	client := newTestClient(t, mock, false)
	ctx := context.Background()

	if _, err := client.ListProducts(ctx); err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}

	_, err := client.CreateProduct(ctx, map[string]any{"sku": "X"})
	var opErr *gateway.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want *gateway.OperationError", err)
	}

	// No purge happened; the list is still served from cache.
	if _, err := client.ListProducts(ctx); err != nil {
		t.Fatalf("ListProducts after failed write failed: %v", err)
	}
	if mock.CallsFor("list_products") != 1 {
		t.Errorf("list_products calls = %d, want 1 (failed write must not purge)", mock.CallsFor("list_products"))
	}
}

func TestUpdateProduct_MergesFreshCopy(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	mock.SetResponse("get_product", testutil.MockResponse{
		Content: `{"product_id": "PRD-1", "name": "Bolt M6", "reorder_point": 5}`,
	})
	mock.SetResponse("update_product", testutil.MockResponse{Content: `{"ok": true}`})

	client := newTestClient(t, mock, false)
	ctx := context.Background()

	// Warm the detail cache so a stale copy exists.
	if _, err := client.GetProduct(ctx, "PRD-1"); err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}

	if _, err := client.UpdateProduct(ctx, "PRD-1", map[string]any{"reorder_point": 10}); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	// The fresh read bypassed the warm cache entry.
	if mock.CallsFor("get_product") != 2 {
		t.Errorf("get_product calls = %d, want 2 (update reads fresh)", mock.CallsFor("get_product"))
	}

	call := mock.LastCall("update_product")
	if call == nil {
		t.Fatal("update_product never reached the remote")
	}
	if call.Arguments["name"] != "Bolt M6" {
		t.Errorf("merged name = %v, want the untouched remote value", call.Arguments["name"])
	}
	if testutil.IntArg(call.Arguments, "reorder_point") != 10 {
		t.Errorf("merged reorder_point = %v, want the updated value", call.Arguments["reorder_point"])
	}
	if call.Arguments["product_id"] != "PRD-1" {
		t.Errorf("product_id = %v, want PRD-1", call.Arguments["product_id"])
	}

	if !client.Cache().Enabled() {
		t.Error("cache left disabled after the update")
	}
}

func TestUpdateProduct_ReenablesCacheOnFailure(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	mock.SetResponse("get_product", testutil.MockResponse{Error: "product PRD-1 does not exist"})

	client := newTestClient(t, mock, false)
	_, err := client.UpdateProduct(context.Background(), "PRD-1", map[string]any{"name": "x"})
	if err == nil {
		t.Fatal("expected error from failed fresh read")
	}

	if !client.Cache().Enabled() {
		t.Error("cache left disabled after a failed update")
	}
}

func TestMutations_MissingIdentifier(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	client := newTestClient(t, mock, false)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (any, error)
	}{
		{"UpdateProduct", func() (any, error) { return client.UpdateProduct(ctx, "", nil) }},
		{"AdjustStock", func() (any, error) { return client.AdjustStock(ctx, "", nil) }},
		{"UpdateSalesOrder", func() (any, error) { return client.UpdateSalesOrder(ctx, "", nil) }},
		{"UpdatePurchaseOrder", func() (any, error) { return client.UpdatePurchaseOrder(ctx, "", nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			var ve *gateway.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("error = %v, want *gateway.ValidationError", err)
			}
		})
	}

	if mock.RequestCount() != 0 {
		t.Errorf("remote requests = %d, want 0", mock.RequestCount())
	}
}

func TestCreateSalesOrder_PurgesStockToo(t *testing.T) {
	mock := testutil.NewMockInventory()
	defer mock.Close()
	mock.SetResponse("get_stock_levels", testutil.MockResponse{Content: `{"on_hand": 3}`})
	mock.SetResponse("create_sales_order", testutil.MockResponse{Content: `{"order_id": "SO-1"}`})

	client := newTestClient(t, mock, false)
	ctx := context.Background()

	if _, err := client.GetStockLevels(ctx, ""); err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if _, err := client.CreateSalesOrder(ctx, map[string]any{"customer_id": "C-1"}); err != nil {
		t.Fatalf("CreateSalesOrder failed: %v", err)
	}
	if _, err := client.GetStockLevels(ctx, ""); err != nil {
		t.Fatalf("GetStockLevels after order failed: %v", err)
	}

	// Fulfilling an order moves stock, so order writes purge stock views.
	if mock.CallsFor("get_stock_levels") != 2 {
		t.Errorf("get_stock_levels calls = %d, want 2", mock.CallsFor("get_stock_levels"))
	}
}
