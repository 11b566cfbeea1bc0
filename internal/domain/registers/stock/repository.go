package stock

import (
	"context"

	"gestoc/internal/core/id"
)

// Repository defines storage operations for the stock aggregate register.
type Repository interface {
	// GetBalance returns the current balance for warehouse+product.
	// Returns a zero-quantity balance (not an error) when no row exists.
	GetBalance(ctx context.Context, warehouseID, productID id.ID) (Balance, error)

	// GetBalanceForUpdate returns the balance with a row lock. The pair is
	// the primary contention point: concurrent receipts and assessment
	// processing on it must serialize to preserve the conservation
	// invariant. Must be called within a transaction.
	GetBalanceForUpdate(ctx context.Context, warehouseID, productID id.ID) (Balance, error)

	// Upsert writes the balance row.
	Upsert(ctx context.Context, bal Balance) error

	// ListByWarehouse returns all balances for a warehouse. excludeZero
	// drops rows without stock (used for assessment seeding).
	ListByWarehouse(ctx context.Context, warehouseID id.ID, excludeZero bool) ([]Balance, error)
}
