package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadintake_backend/internal/auth"
	"leadintake_backend/internal/email"
	"leadintake_backend/internal/events"
	apphttp "leadintake_backend/internal/http"
	"leadintake_backend/internal/http/router"
	"leadintake_backend/internal/leads"
	"leadintake_backend/internal/leads/scoring"
	"leadintake_backend/internal/leads/service"
	"leadintake_backend/internal/notification"
	"leadintake_backend/internal/storage"
	"leadintake_backend/migrations"
	"leadintake_backend/platform/config"
	"leadintake_backend/platform/db"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		return err
	}
	log.Info("migrations applied")

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	validate := validator.New()

	var scorer service.Scorer
	if cfg.IsScoringEnabled() {
		generator, err := scoring.NewGeminiGenerator(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
		if err != nil {
			return err
		}
		scorer = scoring.NewService(generator, cfg.GetScoringTimeout())
	} else {
		log.Warn("AI scoring disabled: GEMINI_API_KEY not set")
	}

	var blobs service.BlobStore
	if cfg.IsStorageEnabled() {
		client, err := storage.NewClient(cfg)
		if err != nil {
			return err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return err
		}
		blobs = client
	} else {
		log.Warn("file storage disabled: MINIO_ENDPOINT not set")
	}

	leadsModule := leads.NewModule(leads.Config{
		Pool:        pool,
		Scorer:      scorer,
		Blobs:       blobs,
		EventBus:    bus,
		Logger:      log,
		Validator:   validate,
		MaxFileSize: cfg.GetMaxFileSize(),
	})

	authModule := auth.NewModule(pool, cfg, validate, log)
	if err := authModule.Service().EnsureAdminUser(ctx); err != nil {
		return err
	}

	modules := []apphttp.Module{leadsModule, authModule}

	if cfg.GetEmailEnabled() {
		templates, err := email.LoadRegistry()
		if err != nil {
			return err
		}
		sender := email.NewSMTPSender(cfg, templates)
		modules = append(modules, email.NewModule(sender, leadsModule.Service(), validate, log))

		if inbox := cfg.GetIntakeInboxAddress(); inbox != "" {
			modules = append(modules, notification.NewModule(sender, bus, inbox, log))
		}
	} else {
		log.Warn("email disabled: SMTP_HOST not set")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: bus,
		Modules:  modules,
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
