package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/auth"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/config"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/events"
	storefrontHttp "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/metrics"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/review"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg)

	log.Info().Msg("Storefront starting...")

	if cfg.Postgres.AutoMigrate {
		if err := db.ApplyMigrations(cfg.Postgres); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	pg, err := db.New(connectCtx, cfg.Postgres)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	serverMetrics := metrics.NewServerMetrics(registry, "api")

	var publisher order.Publisher = events.Discard{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("Failed to create Kafka producer")
		}
		kafkaPublisher := events.NewKafkaPublisher(producer, cfg.Kafka.OrdersTopic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Kafka producer")
			}
		}()
		publisher = kafkaPublisher
	} else {
		log.Warn().Msg("KAFKA_BROKERS is not set, order events will not be published")
	}

	catalogSvc := catalog.NewService(catalog.NewRepository(pg.SQLX()))
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(auth.NewRepository(pg.Pool), tokens)
	reviewSvc := review.NewService(review.NewRepository(pg.Pool))
	orderSvc := order.NewService(order.NewRepository(pg.Pool), catalogSvc, serverMetrics.Publisher(publisher))

	router := storefrontHttp.NewRouter(storefrontHttp.Dependencies{
		Orders:         orderSvc,
		Auth:           authSvc,
		Catalog:        catalogSvc,
		Reviews:        reviewSvc,
		Tokens:         tokens,
		DB:             pg,
		Metrics:        serverMetrics,
		MetricsHandler: metrics.Handler(registry),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
		return
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", cfg.App.Name).Logger()
}
