package dto

import (
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/documents/receipt"
)

// CreateReceiptRequest is a request to create a NIR.
type CreateReceiptRequest struct {
	Number            string               `json:"number,omitempty"`
	Date              *time.Time           `json:"date,omitempty"`
	CompanyID         string               `json:"companyId" binding:"required"`
	SupplierID        string               `json:"supplierId" binding:"required"`
	WarehouseID       string               `json:"warehouseId" binding:"required"`
	SupplierDocNumber string               `json:"supplierDocNumber"`
	SupplierDocDate   *time.Time           `json:"supplierDocDate,omitempty"`
	Currency          string               `json:"currency,omitempty"`
	Comment           string               `json:"comment,omitempty"`
	Lines             []ReceiptLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReceiptLineRequest is one line in a create/update request.
type ReceiptLineRequest struct {
	ProductID    string     `json:"productId" binding:"required"`
	Quantity     float64    `json:"quantity" binding:"required,gt=0"`
	UnitPrice    string     `json:"unitPrice" binding:"required"`
	SellingPrice string     `json:"sellingPrice,omitempty"`
	VATRate      string     `json:"vatRate,omitempty"`
	BatchNo      *string    `json:"batchNo,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
}

// ToEntity converts the request to a domain document.
func (r *CreateReceiptRequest) ToEntity() (*receipt.Receipt, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").WithDetail("supplierId", r.SupplierID)
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("warehouseId", r.WarehouseID)
	}

	doc := receipt.New(r.CompanyID, supplierID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.SupplierDocNumber = r.SupplierDocNumber
	doc.SupplierDocDate = r.SupplierDocDate
	doc.Comment = r.Comment
	if r.Currency != "" {
		doc.Currency = r.Currency
	}

	for _, lr := range r.Lines {
		productID, err := id.Parse(lr.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").WithDetail("productId", lr.ProductID)
		}

		unitPrice, err := types.NewMoneyFromString(lr.UnitPrice)
		if err != nil {
			return nil, apperror.NewValidation("invalid unit price").WithDetail("unitPrice", lr.UnitPrice)
		}

		vatRate := lr.VATRate
		if vatRate == "" {
			vatRate = "19"
		}

		line := doc.AddLine(productID, types.NewQuantityFromFloat64(lr.Quantity), unitPrice, vatRate)
		line.BatchNo = lr.BatchNo
		line.ExpiryDate = lr.ExpiryDate

		if lr.SellingPrice != "" {
			sellingPrice, err := types.NewMoneyFromString(lr.SellingPrice)
			if err != nil {
				return nil, apperror.NewValidation("invalid selling price").WithDetail("sellingPrice", lr.SellingPrice)
			}
			line.SellingPrice = sellingPrice
		}
	}

	return doc, nil
}

// ListReceiptsRequest contains list filter parameters.
type ListReceiptsRequest struct {
	PaginationRequest
	WarehouseID    string `form:"warehouseId"`
	SupplierID     string `form:"supplierId"`
	Status         string `form:"status"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// ToFilter converts query parameters to a domain filter.
func (r *ListReceiptsRequest) ToFilter() (receipt.ListFilter, error) {
	r.Defaults()

	filter := receipt.ListFilter{
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
	if r.SupplierID != "" {
		supplierID, err := id.Parse(r.SupplierID)
		if err != nil {
			return filter, apperror.NewValidation("invalid supplier id").WithDetail("supplierId", r.SupplierID)
		}
		filter.SupplierID = &supplierID
	}
	if r.Status != "" {
		status := receipt.Status(r.Status)
		filter.Status = &status
	}

	return filter, nil
}
