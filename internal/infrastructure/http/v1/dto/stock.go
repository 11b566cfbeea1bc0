package dto

import (
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/registers/valuation"
)

// StockValueRequest contains valuation query parameters.
type StockValueRequest struct {
	Method string `form:"method"`
	AsOf   string `form:"asOf"`
}

// Parse resolves the costing method and optional cutoff date.
// Method defaults to weighted_average when absent.
func (r *StockValueRequest) Parse() (costing.Method, *time.Time, error) {
	method := costing.MethodWeightedAverage
	if r.Method != "" {
		method = costing.Method(r.Method)
		if !method.Valid() {
			return "", nil, apperror.NewValidation("invalid costing method").
				WithDetail("method", r.Method)
		}
	}

	var asOf *time.Time
	if r.AsOf != "" {
		t, err := time.Parse(time.RFC3339, r.AsOf)
		if err != nil {
			return "", nil, apperror.NewValidation("asOf must be RFC3339").
				WithDetail("asOf", r.AsOf)
		}
		asOf = &t
	}

	return method, asOf, nil
}

// ValuationHistoryRequest contains valuation history query parameters.
type ValuationHistoryRequest struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Method string `form:"method"`
	Limit  int    `form:"limit"`
}

// ToFilter converts query parameters to a domain filter.
func (r *ValuationHistoryRequest) ToFilter() (valuation.ListFilter, error) {
	filter := valuation.ListFilter{Limit: r.Limit}
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}

	if r.From != "" {
		t, err := time.Parse(time.RFC3339, r.From)
		if err != nil {
			return filter, apperror.NewValidation("from must be RFC3339").
				WithDetail("from", r.From)
		}
		filter.FromDate = &t
	}
	if r.To != "" {
		t, err := time.Parse(time.RFC3339, r.To)
		if err != nil {
			return filter, apperror.NewValidation("to must be RFC3339").
				WithDetail("to", r.To)
		}
		filter.ToDate = &t
	}
	if r.Method != "" {
		filter.Method = &r.Method
	}

	return filter, nil
}

// CreateWarehouseRequest is a request to register a warehouse.
type CreateWarehouseRequest struct {
	CompanyID string `json:"companyId" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
}
