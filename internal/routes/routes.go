package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/rechargehub/rechargehub/internal/catalog"
	"github.com/rechargehub/rechargehub/internal/config"
	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/middleware"
	"github.com/rechargehub/rechargehub/internal/notification"
	"github.com/rechargehub/rechargehub/internal/recharge"
	"github.com/rechargehub/rechargehub/internal/reconciler"
	"github.com/rechargehub/rechargehub/internal/txn"
	"github.com/rechargehub/rechargehub/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// Broker may be nil in development; in-memory fallbacks take their place.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Broker  *amqp.Connection
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Setup configures middlewares and all application routes, and returns the
// reconciliation sweeper for the server to run alongside the listener.
func Setup(app *fiber.App, d Deps) (*reconciler.Sweeper, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	// Storage
	var (
		wallets wallet.Store
		txns    txn.Store
	)
	if d.DB != nil {
		wallets = wallet.NewPostgresStore(d.DB, ledger.NewPostgresRecorder(d.DB))
		txns = txn.NewPostgresStore(d.DB)
	} else {
		wallets = wallet.NewMemoryStore(ledger.NewInMemory())
		txns = txn.NewMemoryStore()
	}

	// Operator gateway
	var gw gateway.Gateway
	if d.Cfg.GatewayBaseURL != "" {
		gw = gateway.NewHTTPGateway(d.Cfg.GatewayBaseURL, d.Cfg.GatewayAPIKey, d.Cfg.GatewayTimeout, d.Logger)
	} else {
		d.Logger.Warn("no operator gateway configured, approving all requests")
		gw = gateway.StaticGateway{}
	}

	// Notifications
	var notifier notification.Notifier
	if d.Broker != nil {
		amqpNotifier, err := notification.NewAMQPNotifier(d.Broker)
		if err != nil {
			return nil, err
		}
		notifier = amqpNotifier
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	rechargeSvc := recharge.NewService(wallets, txns, gw, notifier, d.Metrics, d.Logger)

	catalogHandler := catalog.NewHandler(catalog.NewStaticProvider())
	walletHandler := wallet.NewHandler(wallets)
	rechargeHandler := recharge.NewHandler(rechargeSvc)

	api := app.Group("/api/v1")

	// Public
	RegisterCatalogRoutes(api, catalogHandler)

	// Protected
	protected := api.Group("", middleware.Auth([]byte(d.Cfg.JWTSecret)), ensureWallet(wallets))
	RegisterWalletRoutes(protected, walletHandler)
	RegisterRechargeRoutes(protected, rechargeHandler)

	sweeper := reconciler.New(rechargeSvc, txns, d.Cache, d.Metrics, d.Logger, reconciler.Options{
		Schedule: d.Cfg.ReconcileSchedule,
		MinAge:   d.Cfg.ReconcileMinAge,
		MaxAge:   d.Cfg.ReconcileMaxAge,
		Batch:    d.Cfg.ReconcileBatch,
	})
	return sweeper, nil
}

// ensureWallet provisions a wallet for the authenticated user on first
// contact. Accounts are issued by the identity provider, so there is no
// signup flow to hang wallet creation on; Create is idempotent.
func ensureWallet(store wallet.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID != "" {
			if _, err := store.Create(c.UserContext(), userID); err != nil {
				return err
			}
		}
		return c.Next()
	}
}
