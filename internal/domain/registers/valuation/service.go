package valuation

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/pkg/logger"
)

// Service provides append and query operations for valuation snapshots.
type Service struct {
	repo Repository
}

// NewService creates a new valuation history service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordInput holds the fields of a snapshot to append.
type RecordInput struct {
	CompanyID         string
	ProductID         id.ID
	WarehouseID       id.ID
	Method            string
	Quantity          types.Quantity
	UnitValue         types.Money
	TotalValue        types.Money
	ValuationDate     time.Time
	ReferenceDocument string
}

// Record appends an immutable valuation snapshot.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Valuation, error) {
	if id.IsNil(in.ProductID) || id.IsNil(in.WarehouseID) {
		return nil, apperror.NewValidation("product and warehouse are required")
	}
	if in.Method == "" {
		return nil, apperror.NewValidation("costing method is required").
			WithDetail("field", "method")
	}
	if in.ValuationDate.IsZero() {
		in.ValuationDate = time.Now().UTC()
	}

	v := &Valuation{
		ID:                id.New(),
		CompanyID:         in.CompanyID,
		ProductID:         in.ProductID,
		WarehouseID:       in.WarehouseID,
		Method:            in.Method,
		Quantity:          in.Quantity,
		UnitValue:         in.UnitValue,
		TotalValue:        in.TotalValue,
		ValuationDate:     in.ValuationDate,
		ReferenceDocument: in.ReferenceDocument,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, v); err != nil {
		return nil, fmt.Errorf("append valuation: %w", err)
	}

	logger.Debug(ctx, "valuation recorded",
		"product_id", v.ProductID,
		"warehouse_id", v.WarehouseID,
		"method", v.Method,
		"total_value", v.TotalValue,
	)

	return v, nil
}

// History returns valuation records for a pair, newest first.
func (s *Service) History(ctx context.Context, warehouseID, productID id.ID, filter ListFilter) ([]Valuation, error) {
	return s.repo.ListByProduct(ctx, warehouseID, productID, filter)
}
