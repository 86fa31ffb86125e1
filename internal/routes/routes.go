package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletbook/walletbook/internal/config"
	"github.com/walletbook/walletbook/internal/ledger"
	"github.com/walletbook/walletbook/internal/middleware"
	"github.com/walletbook/walletbook/internal/storage"
	"github.com/walletbook/walletbook/internal/transaction"
	"github.com/walletbook/walletbook/internal/wallet"
	"github.com/walletbook/walletbook/internal/workspace"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores: postgres in deployment, in-memory when running without a DB.
	var (
		wallets      wallet.Repository
		transactions transaction.Repository
		workspaces   workspace.Repository
		runner       storage.Runner
	)
	if d.DB != nil {
		wallets = wallet.NewPostgresRepository(d.DB)
		transactions = transaction.NewPostgresRepository(d.DB)
		workspaces = workspace.NewPostgresRepository(d.DB)
		runner = storage.NewTxRunner(d.DB)
	} else {
		memWallets := wallet.NewMemoryRepository()
		memTransactions := transaction.NewMemoryRepository()
		wallets = memWallets
		transactions = memTransactions
		workspaces = workspace.NewMemoryRepository()
		runner = storage.NewMemoryRunner(memWallets, memTransactions)
	}

	workspaceSvc := workspace.NewService(workspaces)
	walletSvc := wallet.NewService(wallets)
	engine := ledger.NewEngine(wallets, transactions, runner, d.Logger)

	workspaceHandler := workspace.NewHandler(workspaceSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	ledgerHandler := ledger.NewHandler(engine)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterWorkspaceRoutes(api, workspaceHandler)

	// Protected routes
	protected := api.Group("", middleware.WorkspaceAuth(workspaceSvc))
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, ledgerHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
