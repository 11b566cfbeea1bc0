package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/domain/registers/valuation"
	"gestoc/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock aggregate and valuation queries.
type StockHandler struct {
	stocks     *stock.Service
	engine     *costing.Engine
	valuations *valuation.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(stocks *stock.Service, engine *costing.Engine, valuations *valuation.Service) *StockHandler {
	return &StockHandler{stocks: stocks, engine: engine, valuations: valuations}
}

// WarehouseStock handles GET /warehouses/:id/stock.
func (h *StockHandler) WarehouseStock(c *gin.Context) {
	warehouseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	balances, err := h.stocks.GetWarehouseStock(c.Request.Context(), warehouseID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": balances})
}

// Balance handles GET /warehouses/:id/stock/:productId.
func (h *StockHandler) Balance(c *gin.Context) {
	warehouseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	bal, err := h.stocks.GetBalance(c.Request.Context(), warehouseID, productID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, bal)
}

// Value handles GET /warehouses/:id/stock/:productId/value. The method and
// an optional asOf cutoff select the valuation; historical queries never
// mutate state.
func (h *StockHandler) Value(c *gin.Context) {
	warehouseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req dto.StockValueRequest
	if !bindQuery(c, &req) {
		return
	}

	method, asOf, err := req.Parse()
	if err != nil {
		handleError(c, err)
		return
	}

	value, err := h.engine.CalculateStockValue(c.Request.Context(), warehouseID, productID, method, asOf)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, value)
}

// ValuationHistory handles GET /warehouses/:id/stock/:productId/valuations.
func (h *StockHandler) ValuationHistory(c *gin.Context) {
	warehouseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req dto.ValuationHistoryRequest
	if !bindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		handleError(c, err)
		return
	}

	history, err := h.valuations.History(c.Request.Context(), warehouseID, productID, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": history})
}
