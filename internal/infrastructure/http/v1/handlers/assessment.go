package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gestoc/internal/core/id"
	"gestoc/internal/domain/documents/assessment"
	"gestoc/internal/infrastructure/http/v1/dto"
)

// AssessmentHandler serves physical-count assessment endpoints.
type AssessmentHandler struct {
	service *assessment.Service
}

// NewAssessmentHandler creates an assessment handler.
func NewAssessmentHandler(service *assessment.Service) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// Create handles POST /assessments.
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssessmentRequest
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

// Get handles GET /assessments/:id.
func (h *AssessmentHandler) Get(c *gin.Context) {
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

// Update handles PUT /assessments/:id. Only drafts can be updated.
func (h *AssessmentHandler) Update(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateAssessmentRequest
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

// Delete handles DELETE /assessments/:id.
func (h *AssessmentHandler) Delete(c *gin.Context) {
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

// Initialize handles POST /assessments/:id/initialize. Seeds count items
// from the current warehouse stock and moves the document to in_progress.
func (h *AssessmentHandler) Initialize(c *gin.Context) {
	h.transition(c, h.service.Initialize)
}

// RecordCount handles POST /assessments/:id/counts.
func (h *AssessmentHandler) RecordCount(c *gin.Context) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordCountRequest
	if !bindJSON(c, &req) {
		return
	}

	itemID, actual, err := req.Parse()
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.service.RecordCount(c.Request.Context(), docID, itemID, actual, req.Notes); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Submit handles POST /assessments/:id/submit.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.SubmitForApproval)
}

// Approve handles POST /assessments/:id/approve.
func (h *AssessmentHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Finalize handles POST /assessments/:id/finalize. Applies counted
// differences to stock and posts the variance entry.
func (h *AssessmentHandler) Finalize(c *gin.Context) {
	h.transition(c, h.service.Finalize)
}

// Cancel handles POST /assessments/:id/cancel.
func (h *AssessmentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// List handles GET /assessments.
func (h *AssessmentHandler) List(c *gin.Context) {
	var req dto.ListAssessmentsRequest
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

// transition runs a status transition and returns the refreshed document.
func (h *AssessmentHandler) transition(c *gin.Context, fn func(ctx context.Context, docID id.ID) error) {
	docID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), docID); err != nil {
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
