package handlers

import (
	"game-competition-system/middleware"
	"game-competition-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLedgerRoutes(app *fiber.App, ledgerService *services.LedgerService) {
	// 🔓 Public reads
	app.Get("/profiles/:id", ledgerService.GetPlayerProfile)

	// 🔐 Authenticated routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Self-service registration
	secured.Post("/profiles", ledgerService.CreateOwnProfile)

	// Admin ledger management
	admin := secured.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.Post("/profiles", ledgerService.AdminCreateProfile)
	admin.Post("/profiles/:id/tickets", ledgerService.DepositTicketsEndpoint)
	admin.Patch("/profiles/:id/standing", ledgerService.SetPlayerStandingEndpoint)
	admin.Post("/profiles/:id/disable", ledgerService.DisableProfileEndpoint)
	admin.Get("/changelog", ledgerService.GetChangeLogEndpoint)
}
