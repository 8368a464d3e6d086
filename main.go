package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"game-competition-system/handlers"
	"game-competition-system/middleware"
	"game-competition-system/models"
	"game-competition-system/services"
	"game-competition-system/utils"
	"game-competition-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024 * 1024, // match-data uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlayerProfile{},
		&models.ChangeLog{},
		&models.NodeInfo{},
		&models.NodeStake{},
		&models.NodeQueueTier{},
		&models.NodeQueueSlot{},
		&models.GameDefinition{},
		&models.Competition{},
		&models.CompetitionJudge{},
		&models.Match{},
		&models.LoyaltyLookupEntry{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	nodeQueueService := services.NewNodeQueueService(db)

	judgeCount := services.DefaultJudgeCount
	if v := os.Getenv("COMPETITION_JUDGE_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatal("COMPETITION_JUDGE_COUNT must be a positive integer")
		}
		judgeCount = n
	}
	competitionService := services.NewCompetitionService(db, judgeCount)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional: mirror identities from the upstream identity service so
	// players provisioned there get profiles without an admin call.
	if identityServiceURL := os.Getenv("IDENTITY_SERVICE_URL"); identityServiceURL != "" {
		serviceToken := os.Getenv("COMPETITION_SERVICE_TOKEN")
		syncWorker := workers.NewProfileSyncWorker(db, identityServiceURL, "/api/v1/public/identities", serviceToken)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  IDENTITY_SERVICE_URL not set, profile sync worker disabled")
	}

	nodeQueueService.StartCompactionScheduler(5 * time.Minute)

	// ✅ Setup routes with enforced Gateway auth + consistent /s/ prefix
	handlers.SetupLedgerRoutes(app, ledgerService)
	handlers.SetupNodeRoutes(app, nodeQueueService)
	handlers.SetupCompetitionRoutes(app, competitionService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Queue compaction scheduler running (every 5m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
