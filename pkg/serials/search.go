package serials

import (
	"context"
	"fmt"

	"github.com/bigl34/inflow-cli/pkg/gateway"
)

// SearchResult is the structured outcome of a serial lookup. Not-found is a
// valid result, not an error: callers must treat Found=false as a normal
// return.
type SearchResult struct {
	Found  bool    `json:"found"`
	Serial string  `json:"serial"`
	Origin Origin  `json:"origin"`
	Record *Record `json:"record,omitempty"`
	Hint   string  `json:"hint,omitempty"`
}

// Search looks up a serial number in the index of the given origin, lazily
// building the index when no fresh cached copy exists. The query is
// normalized the same way index keys are.
func (b *Builder) Search(ctx context.Context, serial string, origin Origin, opts BuildOptions) (*SearchResult, error) {
	if Normalize(serial) == "" {
		return nil, &gateway.ValidationError{Param: "serial"}
	}

	var (
		idx *Index
		err error
	)
	switch origin {
	case OriginProducts:
		idx, err = b.ProductIndex(ctx, opts)
	case OriginOrders:
		idx, err = b.OrderIndex(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown index origin %q", origin)
	}
	if err != nil {
		return nil, err
	}

	norm := Normalize(serial)
	if rec, ok := idx.Lookup(norm); ok {
		return &SearchResult{
			Found:  true,
			Serial: norm,
			Origin: idx.Origin,
			Record: &rec,
		}, nil
	}

	return &SearchResult{
		Found:  false,
		Serial: norm,
		Origin: idx.Origin,
		Hint: fmt.Sprintf("serial %s not found among %d indexed serials (%s index built %s); try the other index origin or rebuild with --rebuild",
			norm, idx.Size(), idx.Origin, idx.BuiltAt.Format("2006-01-02 15:04:05")),
	}, nil
}
