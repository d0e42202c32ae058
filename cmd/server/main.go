package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	consenthandler "trialconsent/internal/consent/handler"
	consentmetrics "trialconsent/internal/consent/metrics"
	consentservice "trialconsent/internal/consent/service"
	"trialconsent/internal/consent/validation"
	jwttoken "trialconsent/internal/jwt_token"
	"trialconsent/internal/platform/config"
	"trialconsent/internal/platform/httpserver"
	"trialconsent/internal/platform/kafka"
	"trialconsent/internal/platform/logger"
	"trialconsent/internal/platform/metrics"
	"trialconsent/internal/platform/postgres"
	redisclient "trialconsent/internal/platform/redis"
	"trialconsent/migrations"
	"trialconsent/pkg/platform/audit/worker"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := migrations.Apply(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
	}

	consentMetrics := consentmetrics.New()
	deps := buildConsentDeps(db, rc, cfg, log, consentMetrics)
	defer deps.publisher.Close()

	mode, err := validation.ParseMode(cfg.Validation.Mode)
	if err != nil {
		return err
	}
	svc := consentservice.New(deps.consents, deps.eligibility,
		consentservice.WithTx(deps.tx),
		consentservice.WithLogger(log),
		consentservice.WithAuditPublisher(deps.publisher),
		consentservice.WithMetrics(consentMetrics),
		consentservice.WithValidationMode(mode),
		consentservice.WithLocation(cfg.Trial.Location()),
	)
	h := consenthandler.New(svc, log, consenthandler.WithDefaultMode(mode))

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := newRouter(routerDeps{
		consent:      h,
		jwtValidator: jwtService.StaffValidator(),
		metrics:      metrics.New(),
		health:       healthCheck(db, rc),
		logger:       log,
	})
	srv := httpserver.New(cfg.Server, router)

	var relay *worker.Relay
	if len(cfg.Kafka.Brokers) > 0 && deps.outbox != nil {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopics(ctx, cfg.Kafka.AuditTopic); err != nil {
			return err
		}
		relay = worker.NewRelay(deps.outbox, producer, cfg.Kafka.AuditTopic, log,
			worker.WithBatchSize(cfg.Kafka.RelayBatch),
			worker.WithPollInterval(cfg.Kafka.RelayInterval),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting trialconsent", "addr", cfg.Server.Addr,
			"postgres", db != nil, "redis", rc != nil, "kafka_relay", relay != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func healthCheck(db *sql.DB, rc *redisclient.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		if rc != nil {
			if err := rc.Health(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}
