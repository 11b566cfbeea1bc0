package dto

import (
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/documents/assessment"
)

// CreateAssessmentRequest is a request to create a physical count.
type CreateAssessmentRequest struct {
	Number                string     `json:"number,omitempty"`
	Date                  *time.Time `json:"date,omitempty"`
	CompanyID             string     `json:"companyId" binding:"required"`
	WarehouseID           string     `json:"warehouseId" binding:"required"`
	AssessmentType        string     `json:"assessmentType" binding:"required"`
	ValuationMethod       string     `json:"valuationMethod" binding:"required"`
	CommissionOrderNumber string     `json:"commissionOrderNumber"`
	Comment               string     `json:"comment,omitempty"`
}

// ToEntity converts the request to a domain document.
func (r *CreateAssessmentRequest) ToEntity() (*assessment.Assessment, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("warehouseId", r.WarehouseID)
	}

	doc := assessment.New(
		r.CompanyID,
		warehouseID,
		assessment.Type(r.AssessmentType),
		costing.Method(r.ValuationMethod),
	)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.CommissionOrderNumber = r.CommissionOrderNumber
	doc.Comment = r.Comment

	return doc, nil
}

// RecordCountRequest stores one counted quantity.
type RecordCountRequest struct {
	ItemID         string  `json:"itemId" binding:"required"`
	ActualQuantity float64 `json:"actualQuantity"`
	Notes          *string `json:"notes,omitempty"`
}

// Parse extracts the typed values.
func (r *RecordCountRequest) Parse() (id.ID, types.Quantity, error) {
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return id.Nil(), 0, apperror.NewValidation("invalid item id").WithDetail("itemId", r.ItemID)
	}
	return itemID, types.NewQuantityFromFloat64(r.ActualQuantity), nil
}

// ListAssessmentsRequest contains list filter parameters.
type ListAssessmentsRequest struct {
	PaginationRequest
	WarehouseID    string `form:"warehouseId"`
	Status         string `form:"status"`
	AssessmentType string `form:"assessmentType"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// ToFilter converts query parameters to a domain filter.
func (r *ListAssessmentsRequest) ToFilter() (assessment.ListFilter, error) {
	r.Defaults()

	filter := assessment.ListFilter{
		IncludeDeleted: r.IncludeDeleted,
		Limit:          r.PageSize,
		Offset:         r.Offset(),
	}

	if r.WarehouseID != "" {
		warehouseID, err := id.Parse(r.WarehouseID)
		if err != nil {
			return filter, apperror.NewValidation("invalid warehouse id").WithDetail("warehouseId", r.WarehouseID)
		}
		filter.WarehouseID = &warehouseID
	}
	if r.Status != "" {
		status := assessment.Status(r.Status)
		filter.Status = &status
	}
	if r.AssessmentType != "" {
		assessmentType := assessment.Type(r.AssessmentType)
		filter.AssessmentType = &assessmentType
	}

	return filter, nil
}
