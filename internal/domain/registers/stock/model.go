// Package stock provides the stock aggregate register: a denormalized
// projection of quantity and blended cost per (product, warehouse).
package stock

import (
	"time"

	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// Balance represents the current aggregate for a product/warehouse pair.
//
// Invariant: for batch-tracked warehouse types, Quantity equals the sum of
// remaining quantities over that pair's batches after every receipt or
// consumption. AvgUnitCost is maintained for weighted-average costing;
// FIFO/LIFO unit cost is derived on demand from the batch ledger instead.
type Balance struct {
	// Dimensions
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID `db:"product_id" json:"productId"`

	// Resources
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	AvgUnitCost types.Money    `db:"avg_unit_cost" json:"avgUnitCost"`

	// SellingPrice is tracked for magazin warehouses instead of a purchase
	// cost.
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// Metadata
	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// TotalValue returns quantity x average unit cost.
func (b *Balance) TotalValue() types.Money {
	return b.Quantity.MulMoney(b.AvgUnitCost)
}
