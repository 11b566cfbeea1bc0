package stock

import (
	"gestoc/internal/core/apperror"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/warehouse"
)

// ReceiptLine carries the per-line values a receipt contributes to the
// aggregate.
type ReceiptLine struct {
	Quantity     types.Quantity
	UnitPrice    types.Money // purchase price excluding tax
	SellingPrice types.Money // retail price, magazin only
}

// Policy defines how a warehouse type folds a receipt line into the stock
// aggregate. One concrete policy exists per warehouse type so the branching
// in the goods-receipt processor is exhaustive rather than a string switch.
type Policy interface {
	// Type returns the warehouse type this policy serves.
	Type() warehouse.Type

	// TracksBatches reports whether receipts under this policy also open
	// batch ledger lots.
	TracksBatches() bool

	// Flagged reports whether receipts under this policy are permitted but
	// unusual and should be logged for review.
	Flagged() bool

	// ApplyReceipt folds the line into the balance in place.
	ApplyReceipt(bal *Balance, line ReceiptLine)
}

// PolicyFor returns the stock policy for a warehouse type.
// Unknown types are a validation error, never silently dropped.
func PolicyFor(t warehouse.Type) (Policy, error) {
	switch t {
	case warehouse.TypeDepozit:
		return depozitPolicy{}, nil
	case warehouse.TypeMagazin:
		return magazinPolicy{}, nil
	case warehouse.TypeCustodie:
		return custodiePolicy{}, nil
	case warehouse.TypeTransfer:
		return transferPolicy{}, nil
	default:
		return nil, apperror.NewValidation("invalid warehouse type").
			WithDetail("field", "warehouseType").
			WithDetail("value", string(t))
	}
}

// weightedAverage recomputes the blended unit cost:
// (oldQty x oldAvg + newQty x newPrice) / (oldQty + newQty).
func weightedAverage(bal *Balance, line ReceiptLine) types.Money {
	newQty := bal.Quantity + line.Quantity
	if !newQty.IsPositive() {
		return line.UnitPrice
	}
	oldValue := bal.Quantity.MulMoney(bal.AvgUnitCost)
	addedValue := line.Quantity.MulMoney(line.UnitPrice)
	return oldValue.Add(addedValue).Div(newQty.Decimal())
}

// depozitPolicy: owned goods. Weighted-average cost plus lot creation for
// FIFO/LIFO-capable valuation.
type depozitPolicy struct{}

func (depozitPolicy) Type() warehouse.Type { return warehouse.TypeDepozit }
func (depozitPolicy) TracksBatches() bool  { return true }
func (depozitPolicy) Flagged() bool        { return false }

func (depozitPolicy) ApplyReceipt(bal *Balance, line ReceiptLine) {
	bal.AvgUnitCost = weightedAverage(bal, line)
	bal.Quantity += line.Quantity
}

// magazinPolicy: retail store. The aggregate tracks quantity and a selling
// price, not a purchase cost.
type magazinPolicy struct{}

func (magazinPolicy) Type() warehouse.Type { return warehouse.TypeMagazin }
func (magazinPolicy) TracksBatches() bool  { return false }
func (magazinPolicy) Flagged() bool        { return false }

func (magazinPolicy) ApplyReceipt(bal *Balance, line ReceiptLine) {
	bal.Quantity += line.Quantity
	if !line.SellingPrice.IsZero() {
		bal.SellingPrice = line.SellingPrice
	}
}

// custodiePolicy: goods held, not owned. Quantity only, cost stays zero.
type custodiePolicy struct{}

func (custodiePolicy) Type() warehouse.Type { return warehouse.TypeCustodie }
func (custodiePolicy) TracksBatches() bool  { return false }
func (custodiePolicy) Flagged() bool        { return false }

func (custodiePolicy) ApplyReceipt(bal *Balance, line ReceiptLine) {
	bal.Quantity += line.Quantity
	bal.AvgUnitCost = types.ZeroMoney()
}

// transferPolicy: depozit mechanics on an in-transit warehouse. Receipts
// against transfer warehouses are permitted but flagged for review.
type transferPolicy struct{}

func (transferPolicy) Type() warehouse.Type { return warehouse.TypeTransfer }
func (transferPolicy) TracksBatches() bool  { return true }
func (transferPolicy) Flagged() bool        { return true }

func (transferPolicy) ApplyReceipt(bal *Balance, line ReceiptLine) {
	bal.AvgUnitCost = weightedAverage(bal, line)
	bal.Quantity += line.Quantity
}
