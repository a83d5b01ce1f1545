package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/skinbridge/backend/internal/config"
	"github.com/skinbridge/backend/internal/db"
	"github.com/skinbridge/backend/internal/events"
	apphttp "github.com/skinbridge/backend/internal/http"
	"github.com/skinbridge/backend/internal/http/handlers"
	"github.com/skinbridge/backend/internal/repositories"
	"github.com/skinbridge/backend/internal/services"
	"github.com/skinbridge/backend/internal/steam"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	linkRepo := repositories.NewUserLinkRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)

	// Steam clients
	openIDClient := steam.NewOpenIDClient(cfg.SteamOpenIDURL, cfg.SiteURL+"/identity/callback", cfg.UpstreamTimeout, log)
	profileClient := steam.NewProfileClient(cfg.SteamAPIKey, cfg.SteamWebAPIURL, cfg.UpstreamTimeout, log)
	inventoryClient := steam.NewInventoryClient(cfg.SteamCommunityURL, cfg.UpstreamTimeout, log)

	// Services
	linkService := services.NewLinkService(linkRepo, auditRepo, openIDClient, profileClient, publisher, log)
	inventoryService := services.NewInventoryService(inventoryClient, rdb, cfg.InventoryCacheTTL,
		cfg.DefaultAppID, cfg.DefaultContextID, cfg.DefaultCount, log)

	// Handlers
	identityHandler := handlers.NewIdentityHandler(linkService, cfg.FrontendURL, log)
	tradeHandler := handlers.NewTradeHandler(linkService, log)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, log)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, identityHandler, tradeHandler, inventoryHandler)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
