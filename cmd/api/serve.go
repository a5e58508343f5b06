package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/immo-leads/internal/config"
	"github.com/xavierca1/immo-leads/internal/entity"
	"github.com/xavierca1/immo-leads/internal/infra/database"
	"github.com/xavierca1/immo-leads/internal/infra/http/handlers"
	"github.com/xavierca1/immo-leads/internal/infra/http/middleware"
	"github.com/xavierca1/immo-leads/internal/infra/http/router"
	"github.com/xavierca1/immo-leads/internal/infra/http/security"
	"github.com/xavierca1/immo-leads/internal/infra/integration/webhook"
	"github.com/xavierca1/immo-leads/internal/infra/mail"
	"github.com/xavierca1/immo-leads/internal/infra/memory"
	"github.com/xavierca1/immo-leads/internal/infra/queue"
	"github.com/xavierca1/immo-leads/internal/infra/worker"
	"github.com/xavierca1/immo-leads/internal/observability"
	"github.com/xavierca1/immo-leads/internal/usecase"
)

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.SinkFromPublicVar {
		logger.Warn("using NEXT_PUBLIC_MAKE_WEBHOOK_URL in development; set MAKE_WEBHOOK_URL for production")
	}
	if cfg.SinkURL == "" {
		logger.Error("no lead sink configured; submissions will fail until MAKE_WEBHOOK_URL is set",
			zap.Bool("make_webhook_url_set", false),
			zap.String("env", cfg.Env))
	}

	deps := map[string]handlers.Pinger{}

	// 1. Rate-limit store
	var store entity.RateLimitStore
	if cfg.DatabaseURL != "" {
		db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		repo := database.NewRateLimitRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		store = repo
		deps["database"] = repo
		logger.Info("rate limit state shared through postgres")
	} else {
		memStore := memory.NewRateLimitStore(cfg.RateLimitSweepThreshold)
		if err := middleware.TrackRateLimitIdentifiers(memStore.Len); err != nil {
			logger.Warn("rate limit gauge not registered", zap.Error(err))
		}
		store = memStore
		logger.Info("rate limit state kept in memory (single instance only)")
	}

	sweeper := worker.NewRateLimitSweeper(store, cfg.RateLimitSweepInterval, logger)
	go sweeper.Start(ctx)

	// 2. Notifications
	var notifier entity.LeadNotifier
	var mailer *mail.EmailSender
	if cfg.MailEnabled() {
		mailer = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailFrom, cfg.LeadNotifyTo)
		notifier = mailer
	}

	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		deps["rabbitmq"] = rabbitMQ

		notifier = queue.NewProducer(rabbitMQ.Ch)
		if mailer != nil {
			w := queue.NewWorker(rabbitMQ.Ch, mailer, logger)
			go func() {
				if err := w.Start(ctx, queue.QueueName); err != nil {
					logger.Error("lead worker exited", zap.Error(err))
				}
			}()
		} else {
			logger.Warn("AMQP_URL set without mail settings; lead messages will wait in the queue")
		}
	}

	// 3. Use cases
	sink := webhook.NewClient(webhook.WithTimeout(cfg.SinkTimeout))
	submitLead := usecase.NewSubmitLeadUseCase(sink, cfg.SinkURL, notifier, logger, cfg.IsDevelopment())
	limiter := usecase.NewRateLimiter(store, cfg.RateLimitMax, cfg.RateLimitWindow)

	// 4. Handlers
	leadHandler := handlers.NewLeadHandler(submitLead, limiter, security.NewCSRFGuard(!cfg.IsDevelopment()), logger)
	echoHandler := handlers.NewDevEchoHandler(submitLead, cfg.IsDevelopment(), logger)
	healthHandler := handlers.NewHealthHandler(version, cfg.SinkURL, deps)

	// 5. Router
	r := router.New(router.Handlers{
		Lead:    leadHandler,
		DevEcho: echoHandler,
		Health:  healthHandler,
	}, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Longer than the sink bound so a 504 can still be written.
		WriteTimeout: cfg.SinkTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
