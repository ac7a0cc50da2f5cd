package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"creator-outreach/internal/adapter/amqp"
	httpadapter "creator-outreach/internal/adapter/http"
	"creator-outreach/internal/adapter/llm"
	"creator-outreach/internal/adapter/mail"
	"creator-outreach/internal/adapter/memory"
	"creator-outreach/internal/adapter/postgres"
	"creator-outreach/internal/adapter/usecase"
	"creator-outreach/internal/config"
	"creator-outreach/internal/core/port"
	"creator-outreach/internal/db"
	"creator-outreach/internal/scheduler"
)

// main is the entry point of the outreach service. It loads configuration,
// wires the entity store and the generation, sending and event adapters into
// the workflow engine, then starts the sweeps and the HTTP server. On
// receiving a termination signal it stops the sweeps and gracefully shuts
// down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler).With(slog.String("env", cfg.Env))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo   port.OutreachRepository
		checks []httpadapter.Option
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		repo = memory.New()
	default:
		if cfg.Psql.RunMigrations {
			if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
				logger.Error("migration error", slog.Any("error", err))
				return
			}
			logger.Info("migrations applied successfully")
		}
		pool, err := db.NewPostgresPool(ctx, cfg.Psql)
		if err != nil {
			logger.Error("database connection error", slog.Any("error", err))
			return
		}
		defer pool.Close()
		repo = postgres.NewOutreachRepository(pool)
		checks = append(checks, httpadapter.WithHealthCheck("postgres", pool.Ping))
	}

	var generator port.DraftGenerator = llm.NewMockGenerator()
	if cfg.LLM.Mode == "live" {
		generator = llm.NewOpenAIGenerator(cfg.LLM)
	}
	logger.Info("draft generator ready", slog.String("mode", cfg.LLM.Mode))

	var sender port.SendGateway = mail.NewMockSender(logger)
	if cfg.Mail.Mode == "smtp" {
		sender = mail.NewSMTPSender(cfg.Mail, logger)
	}
	logger.Info("send gateway ready", slog.String("mode", cfg.Mail.Mode), slog.Bool("dry_run", cfg.Mail.DryRun))

	var events port.EventPublisher = amqp.NopPublisher{}
	if cfg.AMQP.Enabled {
		pub, err := amqp.NewPublisher(cfg.AMQP)
		if err != nil {
			logger.Error("rabbitmq connection error", slog.Any("error", err))
			return
		}
		defer pub.Close()
		events = pub
		checks = append(checks, httpadapter.WithHealthCheck("rabbitmq", func(context.Context) error {
			if !pub.Healthy() {
				return errors.New("connection closed")
			}
			return nil
		}))
	}

	outreach := usecase.NewOutreachUseCase(repo, generator, sender,
		usecase.PolicyFromConfig(cfg.Engine, cfg.Mail),
		usecase.WithEvents(events),
		usecase.WithLogger(logger),
	)
	catalog := usecase.NewCatalogUseCase(repo)

	if cfg.SeedDemo {
		if err = db.Seed(ctx, catalog, outreach); err != nil {
			logger.Error("seed error", slog.Any("error", err))
			return
		}
	}

	var wg sync.WaitGroup
	if cfg.Scheduler.Enabled {
		sweeper := scheduler.NewSweeper(outreach, repo, cfg.Scheduler.BatchSize, cfg.Scheduler.Workers,
			scheduler.WithSweepLogger(logger),
		)
		sched := scheduler.New(logger, sweeper.Jobs(cfg.Scheduler.InitialDraftInterval, cfg.Scheduler.FollowUpInterval)...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Start(ctx)
		}()
	}

	opts := append([]httpadapter.Option{
		httpadapter.WithAllowedOrigins(cfg.HTTP.AllowedOrigins),
		httpadapter.WithTestEndpoints(cfg.AllowTestEndpoints),
	}, checks...)
	if cfg.AllowTestEndpoints {
		logger.Warn("test endpoints are enabled")
	}
	handler := httpadapter.NewHandler(outreach, catalog, logger, opts...)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		exitCode = 0
	case err = <-serveErr:
		logger.Error("server error", slog.Any("error", err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
	wg.Wait()
	logger.Info("scheduler stopped")
}
