// Package v1 assembles the HTTP API served by the inventory engine.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/documents/assessment"
	"gestoc/internal/domain/documents/receipt"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/domain/registers/valuation"
	"gestoc/internal/infrastructure/http/v1/handlers"
	"gestoc/internal/infrastructure/http/v1/middleware"
	"gestoc/internal/infrastructure/storage/postgres/catalog_repo"
	"gestoc/pkg/logger"
)

// RouterConfig carries the collaborators the API needs.
type RouterConfig struct {
	Logger *logger.Logger
	Pool   *pgxpool.Pool

	Receipts    *receipt.Service
	Assessments *assessment.Service
	Stocks      *stock.Service
	Engine      *costing.Engine
	Valuations  *valuation.Service
	Warehouses  *catalog_repo.WarehouseRepo
}

// NewRouter builds the gin engine with middleware and all v1 routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Operator())

	health := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)

	api := router.Group("/api/v1")

	warehouses := handlers.NewWarehouseHandler(cfg.Warehouses)
	stocks := handlers.NewStockHandler(cfg.Stocks, cfg.Engine, cfg.Valuations)
	wh := api.Group("/warehouses")
	{
		wh.POST("", warehouses.Create)
		wh.GET("", warehouses.List)
		wh.GET("/:id", warehouses.Get)

		wh.GET("/:id/stock", stocks.WarehouseStock)
		wh.GET("/:id/stock/:productId", stocks.Balance)
		wh.GET("/:id/stock/:productId/value", stocks.Value)
		wh.GET("/:id/stock/:productId/valuations", stocks.ValuationHistory)
	}

	receipts := handlers.NewReceiptHandler(cfg.Receipts)
	nir := api.Group("/receipts")
	{
		nir.POST("", receipts.Create)
		nir.GET("", receipts.List)
		nir.GET("/:id", receipts.Get)
		nir.PUT("/:id", receipts.Update)
		nir.DELETE("/:id", receipts.Delete)
		nir.POST("/:id/approve", receipts.Approve)
	}

	assessments := handlers.NewAssessmentHandler(cfg.Assessments)
	inv := api.Group("/assessments")
	{
		inv.POST("", assessments.Create)
		inv.GET("", assessments.List)
		inv.GET("/:id", assessments.Get)
		inv.PUT("/:id", assessments.Update)
		inv.DELETE("/:id", assessments.Delete)
		inv.POST("/:id/initialize", assessments.Initialize)
		inv.POST("/:id/counts", assessments.RecordCount)
		inv.POST("/:id/submit", assessments.Submit)
		inv.POST("/:id/approve", assessments.Approve)
		inv.POST("/:id/finalize", assessments.Finalize)
		inv.POST("/:id/cancel", assessments.Cancel)
	}

	return router
}
