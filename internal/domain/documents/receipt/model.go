// Package receipt provides the NIR goods-receipt document
// (Nota de Intrare Receptie). It records incoming goods from a supplier into
// one warehouse and, on approval, creates batches, stock increases, and the
// mandatory ledger posting for depozit warehouses.
package receipt

import (
	"context"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/entity"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// Status represents the receipt document status.
// Only the forward transition draft -> approved is modeled; approved is
// terminal.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// Receipt represents a NIR goods-receipt document.
type Receipt struct {
	entity.Document

	// Supplier reference
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Warehouse where goods are received
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Supplier's document reference (invoice/delivery note)
	SupplierDocNumber string     `db:"supplier_doc_number" json:"supplierDocNumber,omitempty"`
	SupplierDocDate   *time.Time `db:"supplier_doc_date" json:"supplierDocDate,omitempty"`

	Status   Status `db:"status" json:"status"`
	Currency string `db:"currency" json:"currency"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalNet      types.Money    `db:"total_net" json:"totalNet"`
	TotalVAT      types.Money    `db:"total_vat" json:"totalVat"`
	TotalGross    types.Money    `db:"total_gross" json:"totalGross"`

	// Table part: received goods
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one received product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"` // excluding VAT

	// SellingPrice is the retail price for magazin warehouses.
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	VATRate   string      `db:"vat_rate" json:"vatRate"` // "0", "5", "9", "19"
	VATAmount types.Money `db:"vat_amount" json:"vatAmount"`
	NetAmount types.Money `db:"net_amount" json:"netAmount"`
	Amount    types.Money `db:"amount" json:"amount"` // gross, with VAT

	BatchNo    *string    `db:"batch_no" json:"batchNo,omitempty"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// New creates a new NIR document in draft.
func New(companyID string, supplierID, warehouseID id.ID) *Receipt {
	return &Receipt{
		Document:    entity.NewDocument(companyID),
		SupplierID:  supplierID,
		WarehouseID: warehouseID,
		Status:      StatusDraft,
		Currency:    "RON",
		TotalNet:    types.ZeroMoney(),
		TotalVAT:    types.ZeroMoney(),
		TotalGross:  types.ZeroMoney(),
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a line and recalculates totals.
func (r *Receipt) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money, vatRate string) *Line {
	lineNo := len(r.Lines) + 1

	net := quantity.MulMoney(unitPrice)
	vat := net.Mul(vatRateFraction(vatRate))

	line := Line{
		LineID:       id.New(),
		LineNo:       lineNo,
		ProductID:    productID,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		SellingPrice: types.ZeroMoney(),
		VATRate:      vatRate,
		VATAmount:    vat,
		NetAmount:    net,
		Amount:       net.Add(vat),
	}

	r.Lines = append(r.Lines, line)
	r.recalculateTotals()
	return &r.Lines[len(r.Lines)-1]
}

// recalculateTotals updates document totals from lines.
func (r *Receipt) recalculateTotals() {
	r.TotalQuantity = 0
	r.TotalNet = types.ZeroMoney()
	r.TotalVAT = types.ZeroMoney()
	r.TotalGross = types.ZeroMoney()

	for _, line := range r.Lines {
		r.TotalQuantity += line.Quantity
		r.TotalNet = r.TotalNet.Add(line.NetAmount)
		r.TotalVAT = r.TotalVAT.Add(line.VATAmount)
		r.TotalGross = r.TotalGross.Add(line.Amount)
	}
}

// Validate implements entity.Validatable. Validation failures reject the
// whole document before any write.
func (r *Receipt) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(r.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if id.IsNil(r.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if r.SupplierDocNumber == "" {
		return apperror.NewValidation("supplier document reference is required").
			WithDetail("field", "supplierDocNumber")
	}

	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range r.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() || line.SellingPrice.IsNegative() {
			return apperror.NewValidation("prices cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify checks if the document can still be edited.
func (r *Receipt) CanModify() error {
	if r.Status != StatusDraft {
		return apperror.NewStateConflict("modify", string(r.Status)).
			WithDetail("document_id", r.ID.String())
	}
	return nil
}

// MarkApproved transitions draft -> approved.
func (r *Receipt) MarkApproved() error {
	if r.Status != StatusDraft {
		return apperror.NewStateConflict("approve", string(r.Status)).
			WithDetail("document_id", r.ID.String())
	}
	// Version stays at the loaded value; the repository's optimistic-lock
	// update matches on it and owns the increment.
	r.Status = StatusApproved
	return nil
}

// vatRateFraction maps a VAT rate code to its multiplier.
func vatRateFraction(rate string) types.Money {
	switch rate {
	case "19":
		return types.MustMoney("0.19")
	case "9":
		return types.MustMoney("0.09")
	case "5":
		return types.MustMoney("0.05")
	default:
		return types.ZeroMoney()
	}
}
