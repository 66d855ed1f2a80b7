package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"money-matters-dashboard/internal/config"
	"money-matters-dashboard/internal/events"
	"money-matters-dashboard/internal/hasura"
	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/logger"
	"money-matters-dashboard/internal/snapshot"
	"money-matters-dashboard/internal/store"
	"money-matters-dashboard/internal/store/memory"
	"money-matters-dashboard/internal/store/postgres"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	migrateCmd := flag.Bool("migrate", false, "Run database migrations and exit")
	seedDemoCmd := flag.Bool("seed-demo", false, "Seed demo users and transactions (idempotent) and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(os.Stdout, logger.Format(cfg.LogFormat), cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	if *migrateCmd || *seedDemoCmd {
		if err := runDatabaseTask(ctx, cfg, log, *migrateCmd, *seedDemoCmd); err != nil {
			log.Fatal().Err(err).Msg("Database task failed")
		}
		return
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func runDatabaseTask(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate, seed bool) error {
	db, err := openDB(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := runMigrations(ctx, db); err != nil {
			return err
		}
		log.Info().Msg("Migration completed successfully")
	}
	if seed {
		if err := seedDemoData(ctx, db, time.Now()); err != nil {
			return err
		}
		log.Info().Msg("Demo data seeded")
	}
	return nil
}

// openSource builds the configured data backend. The returned func releases
// its resources.
func openSource(ctx context.Context, cfg *config.Config, loc *time.Location, log zerolog.Logger) (store.Source, func(), error) {
	switch cfg.DataBackend {
	case "postgres":
		db, err := openDB(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := runMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.New(db, cfg.FetchLimit), func() { db.Close() }, nil
	case "hasura":
		client := hasura.New(cfg.HasuraURL, cfg.HasuraAdminSecret, cfg.FetchLimit).WithLocation(loc)
		return client, func() {}, nil
	default:
		log.Warn().Msg("Using in-memory data backend with demo data")
		return memory.New(demoUsers, demoTransactions(time.Now())...), func() {}, nil
	}
}

func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (snapshot.Cache, func()) {
	if cfg.RedisURL != "" {
		client, err := initRedis(ctx, cfg.RedisURL)
		if err == nil {
			return snapshot.NewRedisCache(client, "money-matters:"), func() { client.Close() }
		}
		log.Warn().Err(err).Msg("Failed to initialize Redis, continuing with in-process cache")
	}
	return snapshot.NewMemoryCache(), func() {}
}

func openPublisher(cfg *config.Config, log zerolog.Logger) (events.Publisher, *events.Client) {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}, nil
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.EventsExchange)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to RabbitMQ, change events disabled")
		return events.NopPublisher{}, nil
	}
	return client, client
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	decimal.MarshalJSONWithoutQuotes = true

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	weekStart, err := cfg.Weekday()
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(ctx, cfg, loc, log)
	if err != nil {
		return err
	}
	defer closeSource()

	cache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	publisher, amqpClient := openPublisher(cfg, log)
	defer publisher.Close()

	loader := snapshot.NewLoader(source, cache, cfg.CacheTTL)
	srv := &server{
		source:       source,
		loader:       loader,
		views:        snapshot.NewViewStates(cache, 24*time.Hour),
		publisher:    publisher,
		location:     loc,
		aggregator:   ledger.NewAggregator(weekStart, loc),
		adminUserID:  cfg.AdminUserID,
		pageLimit:    cfg.PageLimit,
		maxPageLimit: cfg.MaxPageLimit,
		now:          time.Now,
	}

	refresher := &snapshot.Refresher{Loader: loader, Scope: store.Scope{All: true}, Interval: cfg.RefreshInterval}
	go refresher.Run(ctx)

	if amqpClient != nil {
		deliveries, err := amqpClient.Deliveries()
		if err != nil {
			log.Warn().Err(err).Msg("Not consuming change events")
		} else {
			go func() {
				err := events.Consume(ctx, deliveries, func(ctx context.Context, ch events.Change) error {
					return loader.Invalidate(ctx, store.Scope{UserID: ch.UserID})
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("Change consumer stopped")
				}
			}()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", userIDHeader, logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", logger.RequestIDHeader},
		AllowCredentials: !slices.Contains(cfg.CORSOrigins, "*"),
		MaxAge:           12 * time.Hour,
	}))
	srv.routes(r)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.DataBackend).Msg("Server starting")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
