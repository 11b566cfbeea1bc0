package stock

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/warehouse"
	"gestoc/pkg/logger"
)

// Service provides business operations for the stock aggregate register.
// Mutating calls are expected to run inside a caller-managed transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ApplyReceipt folds a receipt line into the product/warehouse aggregate
// according to the warehouse type's stock policy. Locks the balance row.
func (s *Service) ApplyReceipt(ctx context.Context, whType warehouse.Type, warehouseID, productID id.ID, line ReceiptLine) (Balance, error) {
	policy, err := PolicyFor(whType)
	if err != nil {
		return Balance{}, err
	}

	if !line.Quantity.IsPositive() {
		return Balance{}, apperror.NewValidation("receipt quantity must be positive").
			WithDetail("field", "quantity")
	}

	bal, err := s.repo.GetBalanceForUpdate(ctx, warehouseID, productID)
	if err != nil {
		return Balance{}, fmt.Errorf("get balance for update: %w", err)
	}
	bal.WarehouseID = warehouseID
	bal.ProductID = productID

	policy.ApplyReceipt(&bal, line)

	now := time.Now().UTC()
	bal.LastMovementAt = now
	bal.UpdatedAt = now

	if err := s.repo.Upsert(ctx, bal); err != nil {
		return Balance{}, fmt.Errorf("upsert balance: %w", err)
	}

	if policy.Flagged() {
		logger.Warn(ctx, "receipt applied to flagged warehouse type",
			"warehouse_id", warehouseID,
			"warehouse_type", string(whType),
			"product_id", productID,
		)
	}

	return bal, nil
}

// AdjustQuantity shifts the aggregate quantity by delta (positive or
// negative). Negative adjustments are guarded against driving the aggregate
// below zero. Locks the balance row.
func (s *Service) AdjustQuantity(ctx context.Context, warehouseID, productID id.ID, delta types.Quantity) (Balance, error) {
	if delta.IsZero() {
		return s.repo.GetBalance(ctx, warehouseID, productID)
	}

	bal, err := s.repo.GetBalanceForUpdate(ctx, warehouseID, productID)
	if err != nil {
		return Balance{}, fmt.Errorf("get balance for update: %w", err)
	}
	bal.WarehouseID = warehouseID
	bal.ProductID = productID

	newQty := bal.Quantity + delta
	if newQty.IsNegative() {
		return Balance{}, apperror.NewInsufficientStock(
			productID.String(),
			delta.Neg().Float64(),
			bal.Quantity.Float64(),
		)
	}

	bal.Quantity = newQty
	now := time.Now().UTC()
	bal.LastMovementAt = now
	bal.UpdatedAt = now

	if err := s.repo.Upsert(ctx, bal); err != nil {
		return Balance{}, fmt.Errorf("upsert balance: %w", err)
	}

	return bal, nil
}

// GetBalance returns the current aggregate for the pair.
func (s *Service) GetBalance(ctx context.Context, warehouseID, productID id.ID) (Balance, error) {
	return s.repo.GetBalance(ctx, warehouseID, productID)
}

// GetWarehouseStock returns all products with positive stock in a warehouse.
func (s *Service) GetWarehouseStock(ctx context.Context, warehouseID id.ID) ([]Balance, error) {
	return s.repo.ListByWarehouse(ctx, warehouseID, true)
}

// VerifyConservation asserts the conservation invariant for a pair: the sum
// of batch remainders must equal the aggregate quantity. A mismatch is fatal
// and is never auto-corrected; the pair is flagged for manual
// reconciliation.
func (s *Service) VerifyConservation(ctx context.Context, warehouseID, productID id.ID, batchSum types.Quantity) error {
	bal, err := s.repo.GetBalance(ctx, warehouseID, productID)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	if bal.Quantity != batchSum {
		logger.Error(ctx, "stock conservation violated",
			"warehouse_id", warehouseID,
			"product_id", productID,
			"batch_sum", batchSum,
			"aggregate", bal.Quantity,
		)
		return apperror.NewConsistencyViolation(
			productID.String(),
			warehouseID.String(),
			batchSum.Float64(),
			bal.Quantity.Float64(),
		)
	}

	return nil
}
