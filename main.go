// main.go
package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"clickmill/database"
	"clickmill/handlers"
	"clickmill/handlers/admin"
	"clickmill/middleware"
	"clickmill/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Validate critical environment variables
	validateEnvironment()

	// Initialize database
	database.InitDB()

	// Wire the progression core to the ledger
	handlers.InitCore()

	// Initialize background reconciliation
	if err := services.InitReconcileService(handlers.Store()); err != nil {
		log.Fatalf("Failed to initialize reconciliation: %v", err)
	}
	services.GetReconcileService().Start()
	defer services.GetReconcileService().Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.FiberRateLimitMiddleware())

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.FiberAuthRateLimitMiddleware())
	authGroup.Post("/guest", handlers.GuestLogin)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/register", handlers.Register)
	authGroup.Post("/refresh", middleware.AuthMiddleware, handlers.RefreshToken)

	// Click routes (the aggregator's flush target)
	clickGroup := api.Group("/clicks")
	clickGroup.Use(middleware.AuthMiddleware)
	clickGroup.Post("/", middleware.FiberClickRateLimitMiddleware(), handlers.SubmitClicks)
	clickGroup.Get("/", handlers.GetClicks)

	// Achievement routes
	achievementGroup := api.Group("/achievements")
	achievementGroup.Use(middleware.AuthMiddleware)
	achievementGroup.Get("/", handlers.GetAchievements)
	achievementGroup.Post("/notify", handlers.MarkAchievementNotified)

	// Power routes
	powerGroup := api.Group("/powers")
	powerGroup.Use(middleware.AuthMiddleware)
	powerGroup.Get("/", handlers.GetPowers)
	powerGroup.Post("/:id/activate", handlers.ActivatePower)
	powerGroup.Post("/:id/deactivate", handlers.DeactivatePower)
	powerGroup.Post("/:id/upgrade", handlers.UpgradePower)
	powerGroup.Post("/:id/confirm", handlers.ConfirmUpgrade)

	// Ad-hoc reconciliation
	api.Post("/reconcile", middleware.AuthMiddleware, handlers.Reconcile)

	// Leaderboard routes
	leaderboardGroup := api.Group("/leaderboard")
	leaderboardGroup.Get("/", handlers.GetLeaderboard)
	leaderboardGroup.Get("/user/:id", handlers.GetUserRank)
	leaderboardGroup.Get("/around/:id", handlers.GetLeaderboardAroundUser)

	// Achievement notification stream
	app.Use("/ws/achievements", handlers.WebSocketUpgrade)
	app.Get("/ws/achievements", middleware.WebSocketAuthMiddleware, handlers.AchievementStream())

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", admin.Login)
	adminGroup.Post("/logout", admin.Logout)

	// Protected admin routes
	adminProtected := adminGroup.Group("")
	adminProtected.Use(middleware.AdminAuthMiddleware)
	adminProtected.Get("/verify", admin.VerifyToken)

	// Admin catalog management
	adminProtected.Get("/achievements", admin.GetAchievements)
	adminProtected.Post("/achievements", admin.CreateAchievement)
	adminProtected.Put("/achievements/:id", admin.UpdateAchievement)
	adminProtected.Delete("/achievements/:id", admin.DeleteAchievement)
	adminProtected.Get("/powers", admin.GetPowers)
	adminProtected.Post("/powers", admin.CreatePower)
	adminProtected.Put("/powers/:id", admin.UpdatePower)
	adminProtected.Delete("/powers/:id", admin.DeletePower)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔐 JWT Secret configured: %v", os.Getenv("JWT_SECRET") != "")
	log.Printf("🔁 Reconcile interval: %ss", getEnv("RECONCILE_INTERVAL_SECONDS", "15"))
	log.Printf("✅ Flush endpoint available at /api/clicks")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
