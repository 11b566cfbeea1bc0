// Package assessment provides the physical inventory count document
// (Inventariere). It walks a counting workflow from draft through the
// commission count to finalization, where quantity differences are applied
// to stock and, for depozit warehouses, posted to the financial ledger.
package assessment

import (
	"context"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/entity"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/costing"
)

// Status represents the assessment workflow state.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusInProgress      Status = "in_progress"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusFinalized       Status = "finalized"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// Type classifies the reason for the count.
type Type string

const (
	TypePeriodic Type = "periodic" // scheduled periodic count
	TypeAnnual   Type = "annual"   // year-end statutory inventory
	TypeSpot     Type = "spot"     // unscheduled spot check
	TypeHandover Type = "handover" // warehouse responsibility handover
)

// Valid reports whether t is a known assessment type.
func (t Type) Valid() bool {
	switch t {
	case TypePeriodic, TypeAnnual, TypeSpot, TypeHandover:
		return true
	}
	return false
}

// ResultType classifies the outcome for one counted item.
type ResultType string

const (
	ResultMatch   ResultType = "match"
	ResultSurplus ResultType = "surplus"
	ResultDeficit ResultType = "deficit"
)

// Assessment represents one physical count of a single warehouse.
type Assessment struct {
	entity.Document

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	AssessmentType Type   `db:"assessment_type" json:"assessmentType"`
	Status         Status `db:"status" json:"status"`

	// ValuationMethod used to value book stock at initialization.
	ValuationMethod costing.Method `db:"valuation_method" json:"valuationMethod"`

	StartDate time.Time  `db:"start_date" json:"startDate"`
	EndDate   *time.Time `db:"end_date" json:"endDate,omitempty"`

	// CommissionOrderNumber references the order appointing the counting
	// commission.
	CommissionOrderNumber string `db:"commission_order_number" json:"commissionOrderNumber"`

	Currency string `db:"currency" json:"currency"`

	// Totals (calculated from items)
	TotalBookValue    types.Money `db:"total_book_value" json:"totalBookValue"`
	TotalActualValue  types.Money `db:"total_actual_value" json:"totalActualValue"`
	TotalSurplusValue types.Money `db:"total_surplus_value" json:"totalSurplusValue"`
	TotalDeficitValue types.Money `db:"total_deficit_value" json:"totalDeficitValue"`

	// Table part: one row per product present in the warehouse at the
	// moment the count was initialized.
	Items []Item `db:"-" json:"items"`
}

// Item represents one product in the count sheet.
type Item struct {
	ItemID id.ID `db:"item_id" json:"itemId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID     id.ID  `db:"product_id" json:"productId"`
	UnitOfMeasure string `db:"unit_of_measure" json:"unitOfMeasure"`

	// Book values captured at initialization.
	AccountingQuantity types.Quantity `db:"accounting_quantity" json:"accountingQuantity"`
	AccountingValue    types.Money    `db:"accounting_value" json:"accountingValue"`

	// Counted values recorded by the commission.
	ActualQuantity types.Quantity `db:"actual_quantity" json:"actualQuantity"`
	ActualValue    types.Money    `db:"actual_value" json:"actualValue"`

	DifferenceQuantity types.Quantity `db:"difference_quantity" json:"differenceQuantity"`
	DifferenceValue    types.Money    `db:"difference_value" json:"differenceValue"`

	ResultType ResultType `db:"result_type" json:"resultType"`

	Counted   bool       `db:"counted" json:"counted"`
	CountedAt *time.Time `db:"counted_at" json:"countedAt,omitempty"`
	CountedBy *string    `db:"counted_by" json:"countedBy,omitempty"`

	// IsProcessed marks items whose stock difference has already been
	// applied, so finalization can be retried without double-applying.
	IsProcessed bool `db:"is_processed" json:"isProcessed"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// HasDifference reports whether the item needs a stock adjustment.
func (i *Item) HasDifference() bool {
	return i.ResultType != ResultMatch
}

// UnitBookPrice returns the per-unit book value, used to value the counted
// quantity. Zero when the item had no book quantity.
func (i *Item) UnitBookPrice() types.Money {
	if i.AccountingQuantity.IsZero() {
		return types.ZeroMoney()
	}
	return i.AccountingValue.Div(i.AccountingQuantity.Decimal())
}

// RecordCount stores the commission's counted quantity and recomputes the
// difference. The counted quantity is valued at the unit book price.
func (i *Item) RecordCount(actual types.Quantity, countedBy string, notes *string) {
	now := time.Now()

	i.ActualQuantity = actual
	i.ActualValue = actual.MulMoney(i.UnitBookPrice())
	i.DifferenceQuantity = actual - i.AccountingQuantity
	i.DifferenceValue = i.ActualValue.Sub(i.AccountingValue)

	switch {
	case i.DifferenceQuantity.IsPositive():
		i.ResultType = ResultSurplus
	case i.DifferenceQuantity.IsNegative():
		i.ResultType = ResultDeficit
	default:
		i.ResultType = ResultMatch
	}

	i.Counted = true
	i.CountedAt = &now
	i.CountedBy = &countedBy
	i.Notes = notes
}

// New creates a new assessment document in draft.
func New(companyID string, warehouseID id.ID, assessmentType Type, method costing.Method) *Assessment {
	return &Assessment{
		Document:          entity.NewDocument(companyID),
		WarehouseID:       warehouseID,
		AssessmentType:    assessmentType,
		Status:            StatusDraft,
		ValuationMethod:   method,
		StartDate:         time.Now(),
		Currency:          "RON",
		TotalBookValue:    types.ZeroMoney(),
		TotalActualValue:  types.ZeroMoney(),
		TotalSurplusValue: types.ZeroMoney(),
		TotalDeficitValue: types.ZeroMoney(),
		Items:             make([]Item, 0),
	}
}

// Validate checks document fields before persisting.
func (a *Assessment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(a.WarehouseID) {
		return apperror.NewValidation("warehouse is required")
	}
	if !a.AssessmentType.Valid() {
		return apperror.NewValidation("unknown assessment type").
			WithDetail("field", "assessmentType").
			WithDetail("value", string(a.AssessmentType))
	}
	if !a.ValuationMethod.Valid() {
		return apperror.NewValidation("unknown valuation method").
			WithDetail("field", "valuationMethod").
			WithDetail("value", string(a.ValuationMethod))
	}
	if a.StartDate.IsZero() {
		return apperror.NewValidation("start date is required")
	}
	return nil
}

// CanModify reports whether header fields may still be edited.
func (a *Assessment) CanModify() bool {
	return a.Status == StatusDraft
}

// Start moves the document from draft to in_progress. Called once the count
// sheet has been seeded from current stock.
func (a *Assessment) Start() error {
	if a.Status != StatusDraft {
		return apperror.NewStateConflict("start", string(a.Status))
	}
	a.Status = StatusInProgress
	return nil
}

// CanRecordCount reports whether counted quantities may be entered.
func (a *Assessment) CanRecordCount() bool {
	return a.Status == StatusInProgress
}

// SubmitForApproval moves the document to pending_approval. Every item must
// have a recorded count.
func (a *Assessment) SubmitForApproval() error {
	if a.Status != StatusInProgress {
		return apperror.NewStateConflict("submit_for_approval", string(a.Status))
	}
	for i := range a.Items {
		if !a.Items[i].Counted {
			return apperror.NewValidation("item has no recorded count").
				WithDetail("lineNo", a.Items[i].LineNo).
				WithDetail("productId", a.Items[i].ProductID.String())
		}
	}
	a.recalculateTotals()
	a.Status = StatusPendingApproval
	return nil
}

// Approve marks the count results as accepted by the responsible person.
func (a *Assessment) Approve() error {
	if a.Status != StatusPendingApproval {
		return apperror.NewStateConflict("approve", string(a.Status))
	}
	a.Status = StatusApproved
	return nil
}

// MarkFinalized closes the document after all differences were applied.
// Allowed from pending_approval and approved.
func (a *Assessment) MarkFinalized() error {
	if a.Status != StatusPendingApproval && a.Status != StatusApproved {
		return apperror.NewStateConflict("finalize", string(a.Status))
	}
	now := time.Now()
	a.Status = StatusFinalized
	a.EndDate = &now
	return nil
}

// Cancel abandons the count. Allowed from any non-terminal state; no stock
// has been touched yet in those states, so nothing is reverted.
func (a *Assessment) Cancel() error {
	if a.Status.Terminal() {
		return apperror.NewStateConflict("cancel", string(a.Status))
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.EndDate = &now
	return nil
}

// FindItem returns the item with the given id, or nil.
func (a *Assessment) FindItem(itemID id.ID) *Item {
	for i := range a.Items {
		if a.Items[i].ItemID == itemID {
			return &a.Items[i]
		}
	}
	return nil
}

// recalculateTotals updates document totals from items.
func (a *Assessment) recalculateTotals() {
	a.TotalBookValue = types.ZeroMoney()
	a.TotalActualValue = types.ZeroMoney()
	a.TotalSurplusValue = types.ZeroMoney()
	a.TotalDeficitValue = types.ZeroMoney()

	for i := range a.Items {
		item := &a.Items[i]
		a.TotalBookValue = a.TotalBookValue.Add(item.AccountingValue)
		a.TotalActualValue = a.TotalActualValue.Add(item.ActualValue)

		switch item.ResultType {
		case ResultSurplus:
			a.TotalSurplusValue = a.TotalSurplusValue.Add(item.DifferenceValue)
		case ResultDeficit:
			a.TotalDeficitValue = a.TotalDeficitValue.Add(item.DifferenceValue.Abs())
		}
	}
}
