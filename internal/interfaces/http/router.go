package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	Orchestrator    *compliance.Orchestrator
	Worker          *compliance.Worker
	ConfigUC        *compliance.ConfigUseCase
	ReferenceClient *infrafbr.ReferenceClient
	JWTSecret       string
	QueueBatchSize  int
}

// Router registers the API routes. Everything is tenant-scoped and sits
// behind the JWT middleware; config and the queue trigger are admin only.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Sales compliance (any authenticated role; cashiers submit at checkout)
	complianceHandler := NewComplianceHandler(deps.Orchestrator)
	sales := api.Group("/sales")
	sales.Post("/:id/submit", complianceHandler.Submit)
	sales.Get("/:id/compliance", complianceHandler.Status)

	fbr := api.Group("/fbr")

	// Credentials management (admin)
	configHandler := NewConfigHandler(deps.ConfigUC)
	fbr.Put("/config", RequireRole("admin"), configHandler.Upsert)
	fbr.Get("/config", RequireRole("admin"), configHandler.Get)

	// Reference catalogues (any authenticated role; POS autocomplete)
	refHandler := NewReferenceHandler(deps.ConfigUC, deps.ReferenceClient)
	ref := fbr.Group("/reference")
	ref.Get("/provinces", refHandler.Provinces)
	ref.Get("/hs-codes", refHandler.HSCodes)
	ref.Get("/uom", refHandler.UnitsOfMeasure)
	ref.Get("/sro-schedules", refHandler.SROSchedules)

	// Operational queue trigger (admin)
	queueHandler := NewQueueHandler(deps.Worker, deps.QueueBatchSize)
	fbr.Post("/queue/process", RequireRole("admin"), queueHandler.Process)
}
