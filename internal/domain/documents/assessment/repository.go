package assessment

import (
	"context"

	"gestoc/internal/core/id"
	"gestoc/internal/domain"
)

// Repository defines storage operations for assessment documents.
type Repository interface {
	// Create inserts a new document (header only).
	Create(ctx context.Context, doc *Assessment) error

	// GetByID retrieves a document header.
	GetByID(ctx context.Context, docID id.ID) (*Assessment, error)

	// Update modifies a document header (with optimistic locking).
	Update(ctx context.Context, doc *Assessment) error

	// Delete soft-deletes a draft document.
	Delete(ctx context.Context, docID id.ID) error

	// GetItems retrieves count-sheet items ordered by line number.
	GetItems(ctx context.Context, docID id.ID) ([]Item, error)

	// InsertItems bulk-inserts the seeded count sheet.
	InsertItems(ctx context.Context, docID id.ID, items []Item) error

	// UpdateItem persists one item (counted values or processed mark).
	UpdateItem(ctx context.Context, docID id.ID, item *Item) error

	// List retrieves documents with filtering.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Assessment], error)
}

// ListFilter contains filtering options for assessment listings.
type ListFilter struct {
	WarehouseID    *id.ID
	Status         *Status
	AssessmentType *Type
	IncludeDeleted bool
	Limit          int
	Offset         int
}
