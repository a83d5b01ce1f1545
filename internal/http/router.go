package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/skinbridge/backend/internal/config"
	"github.com/skinbridge/backend/internal/http/handlers"
	"github.com/skinbridge/backend/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	identityHandler *handlers.IdentityHandler,
	tradeHandler *handlers.TradeHandler,
	inventoryHandler *handlers.InventoryHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Identity linking
	app.Get("/identity/auth", identityHandler.Auth)
	app.Get("/identity/callback", identityHandler.Callback)
	app.Post("/identity/link", identityHandler.Link)
	app.Get("/identity/link/status", identityHandler.Status)
	app.Get("/identity/link/history", identityHandler.History)
	app.Get("/identity/onboarding", identityHandler.Onboarding)

	// Trade URL
	app.Post("/trade-endpoint", tradeHandler.SetTradeURL)
	app.Get("/trade-endpoint", tradeHandler.GetTradeURL)

	// Inventory
	app.Get("/inventory", inventoryHandler.GetInventory)
}
