package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"puzzle-game-system/handlers"
	"puzzle-game-system/middleware"
	"puzzle-game-system/models"
	"puzzle-game-system/services"
	"puzzle-game-system/utils"
	"puzzle-game-system/workers"

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
		BodyLimit: 32 * 1024 * 1024, // narration audio uploads
	})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
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
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-User-Email",
		ExposeHeaders:    "Content-Length, Content-Type, Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	// TranslateError turns driver unique-violations into gorm.ErrDuplicatedKey,
	// which the sync retry and admission paths depend on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ProgressRecord{},
		&models.LeaderboardEntry{},
		&models.FCMToken{},
		&models.NotificationPreferences{},
		&models.NotificationLog{},
		&models.Season{},
		&models.Stage{},
		&models.Puzzle{},
		&models.Reveal{},
		&models.GlossaryEntry{},
		&models.AppConfig{},
		&models.AdminAuditLog{},
		&models.TTSFile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// --- Push relay: owns provider credentials and wire protocol ---
	pushServiceURL := os.Getenv("PUSH_SERVICE_URL")
	if pushServiceURL == "" {
		log.Fatal("PUSH_SERVICE_URL environment variable not set")
	}
	pushServiceToken := os.Getenv("PUSH_SERVICE_TOKEN")
	if pushServiceToken == "" {
		log.Fatal("PUSH_SERVICE_TOKEN environment variable not set")
	}
	pushClient := services.NewRelayPushClient(pushServiceURL, pushServiceToken)

	notificationService := services.NewNotificationService(db, pushClient)
	progressService := services.NewProgressService(db, notificationService)
	leaderboardService := services.NewLeaderboardService(db)
	contentService := services.NewContentService(db)
	adminService := services.NewAdminService(db)
	trigger := services.NewNotificationTrigger(notificationService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inactivityWorker := workers.NewInactivityWorker(db, notificationService)
	inactivityWorker.Start(ctx)

	contentService.StartUnlockScheduler()
	notificationService.StartTokenPruneScheduler()

	handlers.SetupProgressRoutes(app, progressService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService, trigger)
	handlers.SetupNotificationRoutes(app, notificationService)
	handlers.SetupContentRoutes(app, contentService)
	handlers.SetupAdminRoutes(app, adminService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Inactivity Worker running")
	log.Println("✅ Season unlock + token prune schedulers running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
