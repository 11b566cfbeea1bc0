// Package batch provides the batch (lot) ledger: one row per discrete stock
// receipt at a specific cost and date, tracked for FIFO/LIFO costing.
package batch

import (
	"time"

	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// Batch represents a stock lot owned by the batch ledger.
//
// Invariant: 0 <= RemainingQuantity <= InitialQuantity. Batches are created
// only by receipt events, mutated only by consumption, and never physically
// deleted: a fully consumed lot stays at zero remaining for audit and FIFO
// history.
type Batch struct {
	ID          id.ID  `db:"id" json:"id"`
	CompanyID   string `db:"company_id" json:"companyId"`
	ProductID   id.ID  `db:"product_id" json:"productId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`

	PurchaseDate  time.Time   `db:"purchase_date" json:"purchaseDate"`
	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`

	InitialQuantity   types.Quantity `db:"initial_quantity" json:"initialQuantity"`
	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	BatchNo    *string    `db:"batch_no" json:"batchNo,omitempty"`

	// ReferenceDocument points at the receipt (or adjustment) that created
	// this lot.
	ReferenceDocument string `db:"reference_document" json:"referenceDocument,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RemainingValue returns remaining quantity x purchase price.
func (b *Batch) RemainingValue() types.Money {
	return b.RemainingQuantity.MulMoney(b.PurchasePrice)
}

// Depleted reports whether the lot has been fully consumed.
func (b *Batch) Depleted() bool {
	return b.RemainingQuantity.IsZero()
}

// ConsumeOrder selects which end of the purchase-date timeline consumption
// starts from.
type ConsumeOrder string

const (
	// OrderOldestFirst consumes by ascending purchase date (FIFO).
	OrderOldestFirst ConsumeOrder = "oldest_first"
	// OrderNewestFirst consumes by descending purchase date (LIFO).
	OrderNewestFirst ConsumeOrder = "newest_first"
)

// ConsumptionResult describes the outcome of a consume operation.
// Insufficient stock is not an error: RemainingToConsume > 0 signals partial
// fulfillment and the caller decides whether that is fatal.
type ConsumptionResult struct {
	RequestedQuantity  types.Quantity     `json:"requestedQuantity"`
	ConsumedQuantity   types.Quantity     `json:"consumedQuantity"`
	ConsumedValue      types.Money        `json:"consumedValue"`
	RemainingToConsume types.Quantity     `json:"remainingToConsume"`
	Breakdown          []BatchConsumption `json:"breakdown"`
}

// Success reports whether the full requested quantity was consumed.
func (r *ConsumptionResult) Success() bool {
	return r.RemainingToConsume.IsZero()
}

// BatchConsumption is one per-batch entry of a consumption breakdown.
type BatchConsumption struct {
	BatchID       id.ID          `json:"batchId"`
	PurchaseDate  time.Time      `json:"purchaseDate"`
	PurchasePrice types.Money    `json:"purchasePrice"`
	Quantity      types.Quantity `json:"quantity"`
	Value         types.Money    `json:"value"`
}
