package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gestoc/internal/domain/documents/receipt"
	"gestoc/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler serves NIR document endpoints.
type ReceiptHandler struct {
	service *receipt.Service
}

// NewReceiptHandler creates a receipt handler.
func NewReceiptHandler(service *receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// Create handles POST /receipts.
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity()
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /receipts/:id.
func (h *ReceiptHandler) Get(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Update handles PUT /receipts/:id. Only drafts can be updated; the request
// replaces header fields and lines.
func (h *ReceiptHandler) Update(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}

	doc, err := req.ToEntity()
	if err != nil {
		handleError(c, err)
		return
	}

	// Carry identity and concurrency state from the stored document.
	doc.BaseDocument = existing.BaseDocument
	doc.Status = existing.Status
	if doc.Number == "" {
		doc.Number = existing.Number
	}

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete handles DELETE /receipts/:id.
func (h *ReceiptHandler) Delete(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Approve handles POST /receipts/:id/approve.
func (h *ReceiptHandler) Approve(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Approve(c.Request.Context(), docID); err != nil {
		handleError(c, err)
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// List handles GET /receipts.
func (h *ReceiptHandler) List(c *gin.Context) {
	var req dto.ListReceiptsRequest
	if !bindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		Pagination: dto.NewPaginationResponse(req.Page, req.PageSize, result.TotalCount),
	})
}
