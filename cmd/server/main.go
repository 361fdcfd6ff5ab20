package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/wadtheplanet/wadtheplanet/internal/config"
	"github.com/wadtheplanet/wadtheplanet/internal/database"
	"github.com/wadtheplanet/wadtheplanet/internal/handlers"
	"github.com/wadtheplanet/wadtheplanet/internal/middleware"
	"github.com/wadtheplanet/wadtheplanet/internal/naming"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"github.com/wadtheplanet/wadtheplanet/internal/types"
	"github.com/wadtheplanet/wadtheplanet/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to blob storage
	blobs, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to blob storage: %v", err)
	}

	// Name validator: embedded reserved words plus configured extras
	names := naming.NewValidator(naming.DefaultReserved(cfg.ReservedNames...))

	// Session store
	store := session.New(session.Config{
		Expiration:     time.Duration(cfg.SessionExpirationHours) * time.Hour,
		CookieHTTPOnly: true,
	})

	// Services
	userService := &services.UserService{DB: db, Names: names, Blobs: blobs}
	systemService := &services.SystemService{DB: db, Names: names, Blobs: blobs}
	planetService := &services.PlanetService{DB: db, Names: names, Blobs: blobs}
	scoreService := &services.ScoreService{DB: db}
	searchService := &services.SearchService{DB: db}
	leaderboardService := &services.LeaderboardService{DB: db}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    32 * 1024 * 1024, // textures are large uploads
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("wadtheplanet")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Version and identity middleware
	auth := &middleware.Auth{Store: store, DB: db}
	app.Use(middleware.VersionMiddleware())
	app.Use(auth.LoadUser())

	// Handlers
	authHandler := &handlers.AuthHandler{Users: userService, Store: store}
	accountHandler := &handlers.AccountHandler{Users: userService, Systems: systemService, Store: store}
	systemHandler := &handlers.SystemHandler{Systems: systemService}
	planetHandler := &handlers.PlanetHandler{
		Systems: systemService,
		Planets: planetService,
		Scores:  scoreService,
		Blobs:   blobs,
	}
	browseHandler := &handlers.BrowseHandler{
		DB:           db,
		Searches:     searchService,
		Leaderboards: leaderboardService,
		Blobs:        blobs,
	}

	// Fixed routes. Every fixed name is in the reserved-word list, so a
	// username can never shadow one of these.
	app.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db, blobs)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return utils.SuccessResponse(c, result, status)
	})
	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)
	app.Post("/logout", authHandler.Logout)
	app.Get("/leaderboard", browseHandler.Leaderboard)
	app.Get("/search", browseHandler.Search)
	app.Get("/textures/:planet", browseHandler.Texture)
	app.Get("/avatars/:username", browseHandler.Avatar)

	app.Get("/account", auth.RequireUser(), accountHandler.Me)
	app.Post("/account/edit", auth.RequireUser(), accountHandler.Edit)
	app.Post("/account/delete", auth.RequireUser(), accountHandler.Delete)

	// Slug routes: /<username>/<system>/<planet>
	app.Get("/:username", systemHandler.Account)
	app.Post("/:username/create-system", auth.RequireUser(), systemHandler.Create)
	app.Get("/:username/:system", systemHandler.View)
	app.Post("/:username/:system/edit", auth.RequireUser(), systemHandler.Edit)
	app.Post("/:username/:system/delete", auth.RequireUser(), systemHandler.Delete)
	app.Post("/:username/:system/create-planet", auth.RequireUser(), planetHandler.Create)
	app.Get("/:username/:system/:planet", planetHandler.View)
	app.Post("/:username/:system/:planet/edit", auth.RequireUser(), planetHandler.Edit)
	app.Post("/:username/:system/:planet/delete", auth.RequireUser(), planetHandler.Delete)
	app.Post("/:username/:system/:planet/comment", auth.RequireUser(), planetHandler.Comment)
	app.Post("/:username/:system/:planet/comment/delete", auth.RequireUser(), planetHandler.DeleteComment)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
