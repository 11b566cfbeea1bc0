package receipt

import (
	"context"

	"gestoc/internal/core/id"
	"gestoc/internal/domain"
)

// Repository defines storage operations for NIR documents.
type Repository interface {
	// Create inserts a new document (header only).
	Create(ctx context.Context, doc *Receipt) error

	// GetByID retrieves a document header.
	GetByID(ctx context.Context, docID id.ID) (*Receipt, error)

	// Update modifies a document header (with optimistic locking).
	Update(ctx context.Context, doc *Receipt) error

	// Delete soft-deletes a draft document.
	Delete(ctx context.Context, docID id.ID) error

	// GetLines retrieves document lines ordered by line number.
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	// SaveLines replaces document lines.
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List retrieves documents with filtering.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Receipt], error)
}

// ListFilter contains filtering options for receipt listings.
type ListFilter struct {
	WarehouseID    *id.ID
	SupplierID     *id.ID
	Status         *Status
	IncludeDeleted bool
	Limit          int
	Offset         int
}
