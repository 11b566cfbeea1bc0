package batch

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/pkg/logger"
)

// Ledger provides business operations over stock lots.
// Mutating calls are expected to run inside a caller-managed transaction;
// the stock aggregate update is the caller's responsibility.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new batch ledger.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// CreateInput holds the fields required to open a new lot.
type CreateInput struct {
	CompanyID         string
	ProductID         id.ID
	WarehouseID       id.ID
	PurchaseDate      time.Time
	PurchasePrice     types.Money
	Quantity          types.Quantity
	ExpiryDate        *time.Time
	BatchNo           *string
	ReferenceDocument string
}

// CreateBatch opens a new lot with remaining = initial quantity.
func (l *Ledger) CreateBatch(ctx context.Context, in CreateInput) (*Batch, error) {
	if id.IsNil(in.ProductID) {
		return nil, apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(in.WarehouseID) {
		return nil, apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", in.Quantity.String())
	}
	if in.PurchasePrice.IsNegative() {
		return nil, apperror.NewValidation("purchase price cannot be negative").
			WithDetail("field", "purchasePrice")
	}
	if in.PurchaseDate.IsZero() {
		return nil, apperror.NewValidation("purchase date is required").
			WithDetail("field", "purchaseDate")
	}

	b := &Batch{
		ID:                id.New(),
		CompanyID:         in.CompanyID,
		ProductID:         in.ProductID,
		WarehouseID:       in.WarehouseID,
		PurchaseDate:      in.PurchaseDate,
		PurchasePrice:     in.PurchasePrice,
		InitialQuantity:   in.Quantity,
		RemainingQuantity: in.Quantity,
		ExpiryDate:        in.ExpiryDate,
		BatchNo:           in.BatchNo,
		ReferenceDocument: in.ReferenceDocument,
		CreatedAt:         time.Now().UTC(),
	}

	if err := l.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	logger.Debug(ctx, "batch created",
		"batch_id", b.ID,
		"product_id", b.ProductID,
		"warehouse_id", b.WarehouseID,
		"quantity", b.InitialQuantity,
	)

	return b, nil
}

// Consume greedily draws the requested quantity from eligible lots in the
// given order. A single lot is never over-consumed. Returns a structured
// result with RemainingToConsume > 0 when stock runs out; the caller decides
// whether partial fulfillment is acceptable.
//
// Must run inside a transaction: candidate rows are locked for update.
func (l *Ledger) Consume(ctx context.Context, warehouseID, productID id.ID, quantity types.Quantity, order ConsumeOrder) (*ConsumptionResult, error) {
	if !quantity.IsPositive() {
		return nil, apperror.NewValidation("consume quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", quantity.String())
	}

	batches, err := l.repo.ListEligibleForUpdate(ctx, warehouseID, productID, order)
	if err != nil {
		return nil, fmt.Errorf("list eligible batches: %w", err)
	}

	result := &ConsumptionResult{
		RequestedQuantity:  quantity,
		ConsumedValue:      types.ZeroMoney(),
		RemainingToConsume: quantity,
	}

	for i := range batches {
		if result.RemainingToConsume.IsZero() {
			break
		}
		b := &batches[i]

		take := b.RemainingQuantity.Min(result.RemainingToConsume)
		if !take.IsPositive() {
			continue
		}

		newRemaining := b.RemainingQuantity - take
		if err := l.repo.UpdateRemaining(ctx, b.ID, newRemaining); err != nil {
			return nil, fmt.Errorf("update batch %s remaining: %w", b.ID, err)
		}

		value := take.MulMoney(b.PurchasePrice)
		result.ConsumedQuantity += take
		result.ConsumedValue = result.ConsumedValue.Add(value)
		result.RemainingToConsume -= take
		result.Breakdown = append(result.Breakdown, BatchConsumption{
			BatchID:       b.ID,
			PurchaseDate:  b.PurchaseDate,
			PurchasePrice: b.PurchasePrice,
			Quantity:      take,
			Value:         value,
		})
	}

	if !result.Success() {
		logger.Warn(ctx, "batch consumption left unfilled remainder",
			"product_id", productID,
			"warehouse_id", warehouseID,
			"requested", quantity,
			"remaining", result.RemainingToConsume,
		)
	}

	return result, nil
}

// EligibleBatches returns lots with remaining stock, optionally as of a
// historical cutoff date (purchase_date < cutoff).
func (l *Ledger) EligibleBatches(ctx context.Context, warehouseID, productID id.ID, order ConsumeOrder, cutoff *time.Time) ([]Batch, error) {
	return l.repo.ListEligible(ctx, warehouseID, productID, order, cutoff)
}

// TotalRemaining returns the conservation-check quantity: the sum of
// remaining quantities over all lots of the pair.
func (l *Ledger) TotalRemaining(ctx context.Context, warehouseID, productID id.ID) (types.Quantity, error) {
	return l.repo.SumRemaining(ctx, warehouseID, productID)
}
