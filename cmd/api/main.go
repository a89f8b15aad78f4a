// @title        Pet Registry API
// @version      1.0
// @description  Registro de mascotas con transferencia de dueño en dos pasos.
// @BasePath     /
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-registry/internal/adapters/auth/introspect"
	"pet-registry/internal/adapters/events/kafka"
	mem "pet-registry/internal/adapters/storage/memory"
	pg "pet-registry/internal/adapters/storage/postgres"
	"pet-registry/internal/adapters/storage/sqlite"
	"pet-registry/internal/domain/pets"
	"pet-registry/internal/platform/config"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/metrics"
	"pet-registry/internal/ports/auth"
	"pet-registry/internal/router"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pet-registry: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	m := metrics.New()
	opts := pets.Options{Recorder: m, Logger: log}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		opts.Publisher = pub
		log.Info("kafka publisher enabled", map[string]any{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic})
	}

	svc, err := pets.NewService(ctx, repo, opts)
	if err != nil {
		return err
	}

	var verifier auth.AuthVerifier // nil => modo dev (X-Debug-User-ID)
	if cfg.IdentityVerifyURL != "" {
		v, err := introspect.NewVerifier(introspect.Config{
			URL:     cfg.IdentityVerifyURL,
			APIKey:  cfg.IdentityAPIKey,
			Timeout: cfg.IdentityTimeout,
		})
		if err != nil {
			return err
		}
		verifier = v
	} else {
		log.Warn("no identity verifier configured, trusting X-Debug-User-ID", nil)
	}

	h, err := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Service:      svc,
		Logger:       log,
		Metrics:      m,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "storage": cfg.StorageDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRepository(ctx context.Context, cfg config.Config) (pets.Repository, func(), error) {
	noop := func() {}

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, noop, err
		}
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return pg.NewPetsRepo(db), closer(db), nil

	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return sqlite.NewPetsRepo(db), closer(db), nil

	default:
		return mem.NewPetRepo(), noop, nil
	}
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
