package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/teplocom/support-triage/internal/api/http"
	"github.com/teplocom/support-triage/internal/api/http/handlers"
	"github.com/teplocom/support-triage/internal/auth"
	"github.com/teplocom/support-triage/internal/classifier"
	"github.com/teplocom/support-triage/internal/config"
	"github.com/teplocom/support-triage/internal/events"
	"github.com/teplocom/support-triage/internal/knowledge"
	"github.com/teplocom/support-triage/internal/mailbox"
	"github.com/teplocom/support-triage/internal/notify"
	"github.com/teplocom/support-triage/internal/observability"
	"github.com/teplocom/support-triage/internal/persistence"
	"github.com/teplocom/support-triage/internal/repository"
	"github.com/teplocom/support-triage/internal/service"
	"github.com/teplocom/support-triage/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	operatorRepo := repository.NewOperatorRepository(pool)
	verdictCache := repository.NewVerdictCache(redis.Client, cfg.Redis.VerdictTTL(), logger)

	kb := knowledge.NewBase(cfg.Knowledge.Path, logger)

	// Missing classifier credentials are a configuration error; refuse to
	// serve rather than degrade every request to the fallback.
	gateway, err := classifier.NewGateway(cfg.GigaChat, classifier.GatewayDeps{
		Knowledge: kb,
		Cache:     verdictCache,
		CacheKey:  repository.CacheKey,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to init classifier gateway", zap.Error(err))
	}

	mailer := notify.NewSMTPMailer(cfg.SMTP, logger)
	alerts := notify.NewTelegramNotifier(cfg.Telegram, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo: ticketRepo,
		Classifier: gateway,
		Mailer:     mailer,
		Alerts:     alerts,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg.Auth, operatorRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), operatorRepo)

	if cfg.IMAP.Enabled() {
		poller := mailbox.NewPoller(cfg.IMAP, func(ctx context.Context, from, subject, body string) error {
			_, err := triageService.HandleInbound(ctx, from, subject, body)
			return err
		}, logger)
		worker.StartMailboxWorker(ctx, poller, logger)
	} else {
		logger.Info("mailbox polling disabled (no IMAP credentials)")
	}

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(),
		Webhook:        handlers.NewWebhookHandler(triageService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Operators:      handlers.NewOperatorsHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
