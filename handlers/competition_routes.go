package handlers

import (
	"game-competition-system/middleware"
	"game-competition-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCompetitionRoutes(app *fiber.App, competitionService *services.CompetitionService) {
	// 🔓 Public reads
	app.Get("/games", competitionService.ListGamesEndpoint)
	app.Get("/games/:id", competitionService.GetGameEndpoint)
	app.Get("/competitions", competitionService.ListCompetitionsEndpoint)
	app.Get("/competitions/:id", competitionService.GetCompetitionEndpoint)
	app.Get("/competitions/:id/matches/:index", competitionService.GetMatchEndpoint)
	app.Get("/loyalty-lookup", competitionService.GetLoyaltyLookupEndpoint)

	// 🔐 Authenticated routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/competitions", competitionService.CreateCompetitionEndpoint)
	secured.Post("/competitions/:id/register", competitionService.RegisterEndpoint)
	secured.Post("/competitions/:id/matches/:index/submit", competitionService.SubmitMatchEndpoint)
	secured.Post("/competitions/:id/score", competitionService.ScoreCompetitionEndpoint)
	secured.Post("/match-data", competitionService.UploadMatchDataEndpoint)

	// Admin catalog and lifecycle management
	admin := secured.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.Post("/games", competitionService.CreateGameEndpoint)
	admin.Post("/games/:id/disable", competitionService.DisableGameEndpoint)
	admin.Post("/competitions/:id/disable", competitionService.DisableCompetitionEndpoint)
	admin.Put("/loyalty-lookup", competitionService.SetLoyaltyLookupEndpoint)
}
