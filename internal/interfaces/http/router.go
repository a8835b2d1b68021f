package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/almacen-api/internal/application/alert"
	"github.com/jhoicas/almacen-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC    *stock.UseCase
	Aggregator *alert.Aggregator
	Publisher  *alert.Publisher
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Stocks: proyección + transacciones de inventario
	stocks := api.Group("/stocks")
	stockHandler := NewStockHandler(deps.StockUC)
	stocks.Post("/", stockHandler.Create)
	stocks.Get("/search", stockHandler.GetByName)
	stocks.Get("/dashboard", stockHandler.Dashboard)
	stocks.Get("/:id", stockHandler.GetByID)
	stocks.Put("/:id", stockHandler.Update)
	stocks.Delete("/:id", stockHandler.SoftDelete)
	stocks.Post("/:id/restore", stockHandler.Restore)
	stocks.Delete("/:id/purge", stockHandler.PermanentDelete)
	stocks.Post("/:id/import", stockHandler.Import)
	stocks.Post("/:id/export", stockHandler.Export)
	stocks.Get("/:id/ledger", stockHandler.LedgerSummary)

	// Alerts: vista agregada + disparo manual
	alerts := api.Group("/alerts")
	alertHandler := NewAlertHandler(deps.Aggregator, deps.Publisher)
	alerts.Get("/", alertHandler.List)
	alerts.Post("/trigger", alertHandler.Trigger)
}
