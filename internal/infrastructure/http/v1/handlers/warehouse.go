package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gestoc/internal/domain/warehouse"
	"gestoc/internal/infrastructure/http/v1/dto"
	"gestoc/internal/infrastructure/storage/postgres/catalog_repo"
)

// WarehouseHandler serves warehouse directory endpoints.
type WarehouseHandler struct {
	repo *catalog_repo.WarehouseRepo
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(repo *catalog_repo.WarehouseRepo) *WarehouseHandler {
	return &WarehouseHandler{repo: repo}
}

// Create handles POST /warehouses.
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !bindJSON(c, &req) {
		return
	}

	wh := warehouse.New(req.CompanyID, req.Code, req.Name, warehouse.Type(req.Type))
	if err := wh.Validate(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}

	if err := h.repo.Create(c.Request.Context(), wh); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wh)
}

// Get handles GET /warehouses/:id.
func (h *WarehouseHandler) Get(c *gin.Context) {
	warehouseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	wh, err := h.repo.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wh)
}

// List handles GET /warehouses.
func (h *WarehouseHandler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
