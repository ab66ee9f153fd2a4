package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gobank/gobank/internal/account"
	"github.com/gobank/gobank/internal/bank"
	"github.com/gobank/gobank/internal/chat"
	"github.com/gobank/gobank/internal/config"
	"github.com/gobank/gobank/internal/events"
	"github.com/gobank/gobank/internal/ledger"
	"github.com/gobank/gobank/internal/middleware"
	"github.com/gobank/gobank/internal/session"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Nil DB/Cache are
// replaced with in-memory backends, which is only allowed in development.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, session.CookieName, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var ledgerBackend ledger.Ledger
	var accountRepo account.Repository
	var sessionRepo session.Repository
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		accountRepo = account.NewPostgresRepository(d.DB)
		sessionRepo = session.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		accountRepo = account.NewMemoryRepository()
		sessionRepo = session.NewMemoryRepository()
	}

	var notifier events.Notifier
	if len(d.Cfg.KafkaBrokers) > 0 {
		notifier = events.NewKafkaPublisher(d.Cfg.KafkaBrokers, d.Cfg.KafkaTopic, d.Logger)
	} else {
		notifier = events.NewLoggerNotifier(d.Logger)
	}

	accountSvc := account.NewService(accountRepo, ledgerBackend, d.Cfg.SeedBalance)
	sessionSvc := session.NewService(d.Cfg.SessionSecret, d.Cfg.SessionTTL, sessionRepo)
	bankSvc := bank.NewService(accountRepo, ledgerBackend, notifier)

	accountHandler := account.NewHandler(accountSvc, accountRepo)
	sessionHandler := session.NewHandler(accountSvc, sessionSvc, d.Cfg.IsProduction())
	bankHandler := bank.NewHandler(bankSvc, d.Cfg.HistoryLimit)
	chatHandler := chat.NewHandler(chat.NewProxy(d.Cfg.ChatAPIKey, d.Cfg.ChatAPIURL, d.Cfg.ChatModel))

	api := app.Group("/api")

	// Public routes
	loginLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRatePerMin)
	RegisterAuthRoutes(api, accountHandler, sessionHandler, loginLimiter)
	RegisterChatRoutes(api, chatHandler)

	// Session-protected routes
	protected := api.Group("", middleware.SessionAuth(session.CookieName, sessionSvc))
	RegisterBankRoutes(protected, bankHandler, accountHandler)

	return nil
}
