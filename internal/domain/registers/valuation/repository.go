package valuation

import (
	"context"
	"time"

	"gestoc/internal/core/id"
)

// Repository defines storage operations for the valuation history ledger.
// The table is append-only; no update or delete operations exist.
type Repository interface {
	// Append inserts a valuation record.
	Append(ctx context.Context, v *Valuation) error

	// ListByProduct returns records for a product/warehouse pair within the
	// date range, newest first.
	ListByProduct(ctx context.Context, warehouseID, productID id.ID, filter ListFilter) ([]Valuation, error)
}

// ListFilter bounds history queries.
type ListFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Method   *string
	Limit    int
}
