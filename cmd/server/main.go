package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/court-season-backend/internal/app"
	"github.com/nekogravitycat/court-season-backend/internal/config"
	"github.com/nekogravitycat/court-season-backend/internal/db"
	"github.com/nekogravitycat/court-season-backend/internal/notify"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/obs"
	"github.com/nekogravitycat/court-season-backend/internal/scheduler"
)

const (
	serviceName     = "court-season-backend"
	serviceVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if !cfg.IsProduction {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// buildNotifier always logs events and adds the broker and email sinks that
// are configured. The returned close func releases broker resources.
func buildNotifier(cfg *config.Config) (notify.Notifier, func()) {
	sinks := notify.Multi{notify.LogNotifier{}}
	closeFn := func() {}

	if cfg.AMQPURL != "" {
		pub, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ unavailable, lifecycle events will not be published")
		} else {
			sinks = append(sinks, pub)
			closeFn = func() {
				if err := pub.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close RabbitMQ publisher")
				}
			}
			log.Info().Str("exchange", cfg.AMQPExchange).Msg("Publishing lifecycle events to RabbitMQ")
		}
	}

	if cfg.SESRegion != "" {
		ses, err := notify.NewSESClient(cfg.SESAccessKeyID, cfg.SESSecretAccessKey, cfg.SESRegion, cfg.SESSender)
		if err != nil {
			log.Error().Err(err).Msg("SES unavailable, emails will not be sent")
		} else {
			sinks = append(sinks, notify.NewEmailNotifier(ses))
			log.Info().Str("region", cfg.SESRegion).Msg("Sending notification emails through SES")
		}
	}

	return sinks, closeFn
}

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := db.RunMigrations(pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	env := "dev"
	if cfg.IsProduction {
		env = config.PROD_STRING
	}
	shutdownTracer, err := obs.InitTracer(ctx, serviceName, serviceVersion, env, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	notifier, closeNotifier := buildNotifier(cfg)
	defer closeNotifier()

	container := app.NewContainer(app.Config{
		IsProduction:          cfg.IsProduction,
		ProdOrigins:           cfg.ProdOrigins,
		DBPool:                pool,
		JWTSecret:             cfg.JWTSecret,
		JWTTTL:                cfg.JWTAccessTokenTTL,
		TxMaxAttempts:         cfg.TxMaxAttempts,
		WaitlistDefaultRegion: cfg.WaitlistDefaultRegion,
		Notifier:              notifier,
		NotifyTimeout:         cfg.NotifyTimeout,
	})

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if _, err := scheduler.RegisterAutoComplete(sched, container.SeasonService, cfg.AutoCompleteCron, cfg.AutoCompleteTimeout); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule auto-complete sweep")
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sched.Start()
		<-ctx.Done()
		return sched.Stop()
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	// Drain pending notifications before closing their sinks.
	container.Dispatcher.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracer(flushCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush traces")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Server terminated with error")
		closeNotifier()
		pool.Close()
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
