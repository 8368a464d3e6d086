package handlers

import (
	"game-competition-system/middleware"
	"game-competition-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNodeRoutes(app *fiber.App, nodeQueueService *services.NodeQueueService) {
	// 🔓 Public reads
	app.Get("/queue/tiers", nodeQueueService.GetTiersEndpoint)
	app.Get("/queue/length", nodeQueueService.QueueLengthEndpoint)
	app.Get("/queue/entries", nodeQueueService.PeekQueueEndpoint)
	app.Get("/nodes/:owner", nodeQueueService.ListNodesEndpoint)
	app.Get("/nodes/:owner/keys/:idx", nodeQueueService.NodeKeyAtEndpoint)
	app.Get("/nodes/:owner/:instance", nodeQueueService.GetNodeEndpoint)

	// 🔐 Authenticated routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Operator node management (caller operates their own nodes)
	operator := secured.Group("/nodes", middleware.RequireRole(middleware.RoleOperator))
	operator.Post("/:instance/stake", nodeQueueService.StakeEndpoint)
	operator.Post("/:instance/unstake", nodeQueueService.UnstakeEndpoint)
	operator.Post("/:instance/online", nodeQueueService.OnlineEndpoint)
	operator.Post("/:instance/offline", nodeQueueService.OfflineEndpoint)

	// Admin queue management
	admin := secured.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.Put("/queue/tiers/:index", nodeQueueService.SetTierEndpoint)
	admin.Post("/queue/compact", nodeQueueService.CompactEndpoint)
	admin.Post("/nodes", nodeQueueService.AssignNodesEndpoint)
	admin.Post("/nodes/remove", nodeQueueService.RemoveNodesEndpoint)
}
