package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fetchFromDataset serves pages out of a fixed dataset of n items, recording
// the skip offsets it was asked for.
func fetchFromDataset(n int, skips *[]int) FetchFunc {
	return func(ctx context.Context, skip, count int) ([]any, error) {
		*skips = append(*skips, skip)
		var page []any
		for i := skip; i < n && i < skip+count; i++ {
			page = append(page, fmt.Sprintf("item-%d", i))
		}
		return page, nil
	}
}

func TestFetchAll_SinglePage(t *testing.T) {
	var skips []int
	pager := New(10, 0)

	items, err := pager.FetchAll(context.Background(), fetchFromDataset(4, &skips))
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("items = %d, want 4", len(items))
	}
	// A short page ends paging without a follow-up request.
	if len(skips) != 1 || skips[0] != 0 {
		t.Errorf("skips = %v, want [0]", skips)
	}
}

func TestFetchAll_MultiplePages(t *testing.T) {
	var skips []int
	pager := New(10, 0)

	items, err := pager.FetchAll(context.Background(), fetchFromDataset(25, &skips))
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 25 {
		t.Errorf("items = %d, want 25", len(items))
	}
	want := []int{0, 10, 20}
	if len(skips) != len(want) {
		t.Fatalf("skips = %v, want %v", skips, want)
	}
	for i := range want {
		if skips[i] != want[i] {
			t.Errorf("skips[%d] = %d, want %d", i, skips[i], want[i])
		}
	}
}

func TestFetchAll_ExactPageBoundary(t *testing.T) {
	var skips []int
	pager := New(10, 0)

	items, err := pager.FetchAll(context.Background(), fetchFromDataset(20, &skips))
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 20 {
		t.Errorf("items = %d, want 20", len(items))
	}
	// Two full pages require a third, empty fetch to detect the end.
	if len(skips) != 3 {
		t.Errorf("fetches = %d, want 3", len(skips))
	}
}

func TestFetchAll_CapTruncatesMidPage(t *testing.T) {
	var skips []int
	pager := New(10, 13)

	items, err := pager.FetchAll(context.Background(), fetchFromDataset(100, &skips))
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	// The cap falls inside the second page; the result is cut to exactly it.
	if len(items) != 13 {
		t.Errorf("items = %d, want 13", len(items))
	}
	if len(skips) != 2 {
		t.Errorf("fetches = %d, want 2 (no fetch past the cap)", len(skips))
	}
	if items[12] != "item-12" {
		t.Errorf("last item = %v, want item-12", items[12])
	}
}

func TestFetchAll_ErrorPropagates(t *testing.T) {
	fetchErr := errors.New("remote unavailable")
	pager := New(10, 0)

	calls := 0
	_, err := pager.FetchAll(context.Background(), func(ctx context.Context, skip, count int) ([]any, error) {
		calls++
		if skip >= 10 {
			return nil, fetchErr
		}
		page := make([]any, count)
		return page, nil
	})

	if !errors.Is(err, fetchErr) {
		t.Errorf("error = %v, want wrapped fetch error", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pager := New(10, 0)
	_, err := pager.FetchAll(ctx, func(ctx context.Context, skip, count int) ([]any, error) {
		t.Fatal("fetch called after cancellation")
		return nil, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestNew_DefaultPageSize(t *testing.T) {
	pager := New(0, 0)
	if pager.pageSize != DefaultPageSize {
		t.Errorf("pageSize = %d, want %d", pager.pageSize, DefaultPageSize)
	}
}
