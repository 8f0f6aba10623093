// Package pagination provides sequential cursor paging over the remote
// inventory service's list operations.
//
// The remote paginates with a 0-based skip and a fixed page size. Pages are
// fetched strictly sequentially: each page is awaited before the next is
// requested, so the pager never prefetches. Paging stops when a page comes
// back shorter than the page size, or when an optional max-record cap is
// reached; a cap falling mid-page truncates the page to exactly the cap.
package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 100

// FetchFunc fetches one page of items starting at skip.
type FetchFunc func(ctx context.Context, skip, count int) ([]any, error)

// Pager drives sequential page fetching.
type Pager struct {
	pageSize   int
	maxRecords int
}

// New creates a pager. A pageSize of 0 selects DefaultPageSize; a
// maxRecords of 0 means no cap.
func New(pageSize, maxRecords int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{
		pageSize:   pageSize,
		maxRecords: maxRecords,
	}
}

// FetchAll fetches every page and returns the concatenated items.
func (p *Pager) FetchAll(ctx context.Context, fetch FetchFunc) ([]any, error) {
	start := time.Now()

	var items []any
	skip := 0
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, skip, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page at skip %d: %w", skip, err)
		}
		pages++

		items = append(items, page...)

		if p.maxRecords > 0 && len(items) >= p.maxRecords {
			items = items[:p.maxRecords]
			log.Debug().
				Int("pages", pages).
				Int("records", len(items)).
				Msg("Record cap reached")
			break
		}

		if len(page) < p.pageSize {
			break
		}
		skip += p.pageSize
	}

	log.Debug().
		Int("pages", pages).
		Int("records", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}
