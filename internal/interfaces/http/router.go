package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/application/issue"
	"github.com/jhoicas/garment-ledger/internal/application/manufacturing"
	"github.com/jhoicas/garment-ledger/internal/application/printing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	IssueUC         *issue.IssueUseCase
	ManufacturingUC *manufacturing.ManufacturingUseCase
	PrintingUC      *printing.PrintingUseCase
	MovementsUC     *inventory.MovementsUseCase
	LowStockUC      *inventory.LowStockUseCase
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", MetricsMiddleware())

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Salidas de material
	issues := protected.Group("/issues")
	issueHandler := NewIssueHandler(deps.IssueUC)
	issues.Post("/", issueHandler.Create)
	issues.Get("/:id", issueHandler.GetByID)
	issues.Get("/:id/slip.pdf", issueHandler.Slip)
	issues.Post("/:id/lines", issueHandler.AddLines)
	issues.Post("/:id/apply", issueHandler.Apply)
	issues.Post("/:id/revert", issueHandler.Revert)

	// Manufactura de producto terminado
	runs := protected.Group("/manufacturing-runs")
	runHandler := NewManufacturingHandler(deps.ManufacturingUC)
	runs.Post("/", runHandler.Create)
	runs.Get("/:id", runHandler.GetByID)
	runs.Post("/:id/apply", runHandler.Apply)
	runs.Post("/:id/revert", runHandler.Revert)

	// Tela estampada
	printingHandler := NewPrintingHandler(deps.PrintingUC)
	protected.Post("/printed-batches", printingHandler.Create)
	protected.Post("/printed-batches/:id/revert", printingHandler.Revert)

	// Consultas de stock
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.MovementsUC, deps.LowStockUC)
	stock.Get("/movements", stockHandler.ListMovements)
	stock.Get("/low", stockHandler.ListLowStock)
}
