package costing

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/registers/batch"
	"gestoc/internal/domain/registers/stock"
	"gestoc/pkg/logger"
)

// StockValue is the result of a valuation call.
type StockValue struct {
	ProductID   id.ID  `json:"productId"`
	WarehouseID id.ID  `json:"warehouseId"`
	Method      Method `json:"method"`

	Quantity         types.Quantity `json:"quantity"`
	Value            types.Money    `json:"value"`
	AverageUnitValue types.Money    `json:"averageUnitValue"`

	// Batches is the per-lot breakdown, ordered per the method.
	// Nil for weighted average: the method does not track batch identity
	// even though lots remain stored for traceability.
	Batches []BatchValue `json:"batches,omitempty"`
}

// BatchValue is one lot's contribution to a valuation.
type BatchValue struct {
	BatchID       id.ID          `json:"batchId"`
	PurchaseDate  time.Time      `json:"purchaseDate"`
	PurchasePrice types.Money    `json:"purchasePrice"`
	Quantity      types.Quantity `json:"quantity"`
	Value         types.Money    `json:"value"`
}

// Engine computes stock value and performs method-driven consumption against
// the batch ledger. Pure reads never mutate state; consumption must run
// inside a caller-managed transaction.
type Engine struct {
	batches *batch.Ledger
	stocks  *stock.Service
}

// NewEngine creates a new costing engine.
func NewEngine(batches *batch.Ledger, stocks *stock.Service) *Engine {
	return &Engine{batches: batches, stocks: stocks}
}

// CalculateStockValue values the pair's remaining stock under the given
// method. asOf, when non-nil, restricts to lots purchased before it,
// enabling historical valuation without mutating current state. Calling this
// twice without intervening mutation returns identical results.
func (e *Engine) CalculateStockValue(ctx context.Context, warehouseID, productID id.ID, method Method, asOf *time.Time) (*StockValue, error) {
	if !method.Valid() {
		return nil, apperror.NewValidation("invalid costing method").
			WithDetail("field", "method").
			WithDetail("value", string(method))
	}

	order := batch.OrderOldestFirst
	if method == MethodLIFO {
		order = batch.OrderNewestFirst
	}

	lots, err := e.batches.EligibleBatches(ctx, warehouseID, productID, order, asOf)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	result := &StockValue{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Method:      method,
		Value:       types.ZeroMoney(),
	}

	for _, lot := range lots {
		value := lot.RemainingValue()
		result.Quantity += lot.RemainingQuantity
		result.Value = result.Value.Add(value)

		if method.UsesBatchOrder() {
			result.Batches = append(result.Batches, BatchValue{
				BatchID:       lot.ID,
				PurchaseDate:  lot.PurchaseDate,
				PurchasePrice: lot.PurchasePrice,
				Quantity:      lot.RemainingQuantity,
				Value:         value,
			})
		}
	}

	if result.Quantity.IsPositive() {
		result.AverageUnitValue = result.Value.Div(result.Quantity.Decimal())
	} else {
		result.AverageUnitValue = types.ZeroMoney()
	}

	return result, nil
}

// ConsumeStock draws the quantity from the batch ledger in the ordering the
// method implies, then decrements the stock aggregate by the consumed
// quantity so the conservation invariant holds. Weighted average has no
// batch-level consumption semantics; callers adjust the aggregate directly
// and the blended unit cost is simply recomputed.
//
// Insufficient stock is not an error: the result carries
// RemainingToConsume > 0 and callers requiring atomic full consumption must
// check it and roll back themselves.
func (e *Engine) ConsumeStock(ctx context.Context, warehouseID, productID id.ID, quantity types.Quantity, method Method) (*batch.ConsumptionResult, error) {
	order, err := method.consumeOrder()
	if err != nil {
		return nil, err
	}

	result, err := e.batches.Consume(ctx, warehouseID, productID, quantity, order)
	if err != nil {
		return nil, fmt.Errorf("consume batches: %w", err)
	}

	if result.ConsumedQuantity.IsPositive() {
		if _, err := e.stocks.AdjustQuantity(ctx, warehouseID, productID, result.ConsumedQuantity.Neg()); err != nil {
			return nil, fmt.Errorf("adjust aggregate: %w", err)
		}
	}

	// Conservation must hold after the paired mutation.
	batchSum, err := e.batches.TotalRemaining(ctx, warehouseID, productID)
	if err != nil {
		return nil, fmt.Errorf("sum batch remainders: %w", err)
	}
	if err := e.stocks.VerifyConservation(ctx, warehouseID, productID, batchSum); err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock consumed",
		"product_id", productID,
		"warehouse_id", warehouseID,
		"method", string(method),
		"consumed", result.ConsumedQuantity,
		"value", result.ConsumedValue,
	)

	return result, nil
}
