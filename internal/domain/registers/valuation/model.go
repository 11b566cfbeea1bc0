// Package valuation provides the valuation history ledger: an append-only
// record of computed stock valuations for audit and point-in-time queries.
package valuation

import (
	"time"

	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// Valuation is one immutable valuation snapshot. Rows are never updated or
// deleted once written.
type Valuation struct {
	ID          id.ID  `db:"id" json:"id"`
	CompanyID   string `db:"company_id" json:"companyId"`
	ProductID   id.ID  `db:"product_id" json:"productId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`

	// Method is the costing method the snapshot was computed under
	// (fifo, lifo, weighted_average).
	Method string `db:"method" json:"method"`

	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitValue  types.Money    `db:"unit_value" json:"unitValue"`
	TotalValue types.Money    `db:"total_value" json:"totalValue"`

	ValuationDate     time.Time `db:"valuation_date" json:"valuationDate"`
	ReferenceDocument string    `db:"reference_document" json:"referenceDocument,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
