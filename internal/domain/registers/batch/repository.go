package batch

import (
	"context"
	"time"

	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// Repository defines storage operations for the batch ledger.
type Repository interface {
	// Create inserts a new batch row.
	Create(ctx context.Context, b *Batch) error

	// GetByID retrieves a batch by ID.
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)

	// ListEligible returns batches with remaining quantity > 0 for the
	// product/warehouse pair, ordered per the consume order. Purchase-date
	// ties break on insertion sequence (UUIDv7 id order) so consumption is
	// deterministic. A non-nil cutoff restricts to purchase_date < cutoff
	// for point-in-time valuations.
	ListEligible(ctx context.Context, warehouseID, productID id.ID, order ConsumeOrder, cutoff *time.Time) ([]Batch, error)

	// ListEligibleForUpdate is ListEligible with row locks, for use inside a
	// consuming transaction.
	ListEligibleForUpdate(ctx context.Context, warehouseID, productID id.ID, order ConsumeOrder) ([]Batch, error)

	// UpdateRemaining sets a batch's remaining quantity.
	UpdateRemaining(ctx context.Context, batchID id.ID, remaining types.Quantity) error

	// SumRemaining returns the total remaining quantity over all batches of
	// the product/warehouse pair. Used for conservation checks against the
	// stock aggregate.
	SumRemaining(ctx context.Context, warehouseID, productID id.ID) (types.Quantity, error)
}
