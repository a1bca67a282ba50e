// Package routes defines the API routing configuration. It wires
// repositories, services and handlers together and groups routes by the
// permission they require.
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"coursepay/internal/config"
	"coursepay/internal/handlers"
	"coursepay/internal/middleware"
	"coursepay/internal/repositories"
	"coursepay/internal/repositories/cache"
	"coursepay/internal/services/currency"
	"coursepay/internal/services/deposit"
	"coursepay/internal/services/ledger"
	"coursepay/internal/services/wallet"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, redisClient *redis.Client) {
	repo := repositories.NewWalletRepository(repositories.DB)

	accountCache := cache.NewAccountCache(
		redisClient,
		config.GetDurationEnv("CACHE_TTL", 5*time.Minute),
	)

	normalizer := currency.NewNormalizer()

	walletService := wallet.NewService(
		repo,
		accountCache,
		normalizer,
		wallet.Config{},
		&wallet.NoopMetricsCollector{},
	)
	ledgerService := ledger.NewService(repo, accountCache)
	depositService := deposit.NewService(walletService, deposit.NewStripeCharger())

	walletHandler := handlers.NewWalletHandler(walletService, depositService)
	ledgerHandler := handlers.NewLedgerHandler(walletService, ledgerService)
	adminHandler := handlers.NewAdminHandler(walletService, ledgerService)

	app.Get("/health", handlers.HealthCheck(redisClient))

	api := app.Group("/api/v1")
	authenticated := api.Use(middleware.Auth())

	walletGroup := authenticated.Group("/wallet")
	walletGroup.Post("/", walletHandler.CreateAccount)
	walletGroup.Get("/", walletHandler.GetAccount)
	walletGroup.Get("/balance", walletHandler.GetBalance)
	walletGroup.Post("/credit", walletHandler.Credit)
	walletGroup.Post("/debit", walletHandler.Debit)
	walletGroup.Post("/withdraw", walletHandler.Withdraw)
	walletGroup.Post("/deposit", walletHandler.Deposit)
	walletGroup.Post("/transfer", walletHandler.Transfer)

	ledgerGroup := authenticated.Group("/ledger")
	ledgerGroup.Get("/history", ledgerHandler.History)
	ledgerGroup.Get("/totals", ledgerHandler.Totals)
	ledgerGroup.Get("/ref/:ref", ledgerHandler.ByExternalRef)

	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Post("/accounts/:id/freeze", adminHandler.Freeze)
	admin.Post("/accounts/:id/unfreeze", adminHandler.Unfreeze)
	admin.Post("/accounts/:id/deactivate", adminHandler.Deactivate)
	admin.Post("/accounts/:id/reactivate", adminHandler.Reactivate)
	admin.Post("/accounts/:id/reconcile", adminHandler.Reconcile)
	admin.Post("/entries/:id/reverse", adminHandler.Reverse)
}
