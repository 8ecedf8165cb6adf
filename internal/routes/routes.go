// Package routes defines the API routing configuration. It wires
// repositories, services, and handlers, and groups routes by the
// capability they require.
package routes

import (
	"kobopay/internal/config"
	"kobopay/internal/gateway/paystack"
	"kobopay/internal/handlers"
	"kobopay/internal/middleware"
	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/services/apikey"
	"kobopay/internal/services/auth"
	"kobopay/internal/services/deposit"
	"kobopay/internal/services/ledger"
	"kobopay/internal/services/transfer"
	"kobopay/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Repositories
	walletRepo := repositories.NewWalletRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)
	keyRepo := repositories.NewAPIKeyRepository(db)

	// Gateway client
	gateway := paystack.NewClient(paystack.Config{
		BaseURL:       config.GetEnv("PAYSTACK_BASE_URL", ""),
		SecretKey:     config.GetEnv("PAYSTACK_SECRET_KEY", ""),
		WebhookSecret: config.GetEnv("PAYSTACK_WEBHOOK_SECRET", config.GetEnv("PAYSTACK_SECRET_KEY", "")),
		CallbackURL:   config.GetEnv("PAYSTACK_CALLBACK_URL", ""),
	})

	// Services
	authService := auth.NewService(userRepo)
	keyService := apikey.NewService(keyRepo, repositories.CacheService, nil)
	walletService := wallet.NewService(walletRepo, nil)
	ledgerService := ledger.NewService(txnRepo, nil)
	transferService := transfer.NewService(walletRepo, nil)
	depositService := deposit.NewService(deposit.Config{
		WalletRepo: walletRepo,
		TxnRepo:    txnRepo,
		Wallets:    walletService,
		Ledger:     ledgerService,
		Gateway:    gateway,
		Cache:      repositories.CacheService,
		MinKobo:    config.GetInt64Env("MIN_DEPOSIT_KOBO", deposit.DefaultMinAmountKobo),
	})

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(walletService)
	depositHandler := handlers.NewDepositHandler(depositService, authService)
	transferHandler := handlers.NewTransferHandler(transferService)
	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	keyHandler := handlers.NewAPIKeyHandler(keyService)

	authMiddleware := middleware.NewAuthMiddleware(authService, keyService)

	// Public routes
	app.Get("/health", handlers.HealthCheck)
	app.Post("/api/register", authHandler.RegisterUser)
	app.Post("/api/login", authHandler.LoginUser)
	app.Post("/api/refresh", authHandler.RefreshToken)
	app.Post("/api/webhooks/paystack", depositHandler.PaystackWebhook)

	// Authenticated routes
	api := app.Group("/api", authMiddleware.Handler)
	api.Post("/logout", authHandler.LogoutUser)
	api.Post("/change-password", authHandler.ChangePassword)

	api.Post("/wallet", walletHandler.CreateWallet)
	api.Get("/wallet/balance",
		middleware.RequireCapability(models.CapabilityRead), walletHandler.GetBalance)
	api.Post("/wallet/deposit",
		middleware.RequireCapability(models.CapabilityDeposit), depositHandler.InitiateDeposit)
	api.Get("/wallet/deposit/:reference/status",
		middleware.RequireCapability(models.CapabilityRead), depositHandler.DepositStatus)
	api.Post("/wallet/transfer",
		middleware.RequireCapability(models.CapabilityTransfer), transferHandler.Transfer)

	api.Get("/transactions",
		middleware.RequireCapability(models.CapabilityRead), transactionHandler.ListTransactions)
	api.Get("/transactions/stats",
		middleware.RequireCapability(models.CapabilityRead), transactionHandler.TransactionStats)
	api.Get("/transactions/:reference",
		middleware.RequireCapability(models.CapabilityRead), transactionHandler.GetTransaction)

	// API key management is JWT-only; a key cannot mint or revoke keys.
	keys := api.Group("/keys", func(c *fiber.Ctx) error {
		if _, ok := c.Locals("claims").(*models.UserClaims); !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "API key management requires a user session"})
		}
		return c.Next()
	})
	keys.Post("/", keyHandler.CreateKey)
	keys.Get("/", keyHandler.ListKeys)
	keys.Delete("/:id", keyHandler.RevokeKey)
}
