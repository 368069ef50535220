package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	specpkg "github.com/daap14/blueprints/api"
	"github.com/daap14/blueprints/internal/api"
	"github.com/daap14/blueprints/internal/api/handler"
	"github.com/daap14/blueprints/internal/auth"
	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/config"
	"github.com/daap14/blueprints/internal/database"
	"github.com/daap14/blueprints/internal/metrics"
	"github.com/daap14/blueprints/internal/monitor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	filterKind, err := cfg.FilterKind()
	if err != nil {
		slog.Error("invalid filter configuration", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStore(startCtx, cfg)
	if err != nil {
		startCancel()
		slog.Error("failed to open blueprint store", "error", err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	defer store.close()

	m := metrics.New()
	repo := metrics.InstrumentRepository(store.repo, m)

	if err := seed(startCtx, cfg, repo); err != nil {
		startCancel()
		slog.Error("failed to seed blueprints", "error", err)
		os.Exit(1)
	}
	startCancel()

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	if cfg.MonitorInterval > 0 {
		mon := monitor.New(store.pinger, store.repo, m, time.Duration(cfg.MonitorInterval)*time.Second)
		go mon.Start(monitorCtx)
	}

	var authService *auth.Service
	if cfg.AuthEnabled {
		authService, err = setupAuth(context.Background(), cfg)
		if err != nil {
			slog.Error("failed to set up authentication", "error", err)
			os.Exit(1)
		}
	}

	service := blueprint.NewService(repo, filterKind)

	router := api.NewRouter(api.RouterDeps{
		Service:        service,
		AuthService:    authService,
		StorePinger:    store.pinger,
		StoreBackend:   cfg.StoreBackend,
		Version:        cfg.Version,
		Metrics:        m,
		OpenAPISpec:    specpkg.OpenAPISpec,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting blueprints server",
			"port", cfg.Port,
			"version", cfg.Version,
			"backend", cfg.StoreBackend,
			"filter", filterKind.String(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	monitorCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// openedStore is a configured Repository plus what the server needs to
// health-check and release it.
type openedStore struct {
	repo   blueprint.Repository
	pinger handler.StorePinger
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config) (*openedStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &openedStore{
			repo:   blueprint.NewPostgresRepository(db.Pool()),
			pinger: db,
			close:  db.Close,
		}, nil

	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		return &openedStore{
			repo:   blueprint.NewRedisRepository(client),
			pinger: redisPinger{client: client},
			close:  func() { client.Close() },
		}, nil

	default:
		return &openedStore{
			repo:  blueprint.NewMemoryRepository(),
			close: func() {},
		}, nil
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// setupAuth loads API_KEYS_FILE into an in-memory key store. With no keys
// configured, a single admin key is generated and logged.
func setupAuth(ctx context.Context, cfg *config.Config) (*auth.Service, error) {
	keyRepo := auth.NewMemoryKeyRepository()
	if cfg.APIKeysFile != "" {
		keys, err := auth.LoadKeyFile(cfg.APIKeysFile)
		if err != nil {
			return nil, err
		}
		if err := auth.Import(ctx, keyRepo, keys); err != nil {
			return nil, err
		}
		slog.Info("loaded api keys", "count", len(keys))
	}

	authService := auth.NewService(keyRepo, cfg.BcryptCost)
	if _, err := authService.BootstrapAdminKey(ctx); err != nil {
		return nil, err
	}
	return authService, nil
}

func seed(ctx context.Context, cfg *config.Config, repo blueprint.Repository) error {
	var bps []blueprint.Blueprint
	if cfg.SeedSampleData {
		bps = append(bps, blueprint.SampleBlueprints()...)
	}
	if cfg.SeedFile != "" {
		fromFile, err := blueprint.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		bps = append(bps, fromFile...)
	}
	if len(bps) == 0 {
		return nil
	}

	created, err := blueprint.Seed(ctx, repo, bps)
	if err != nil {
		return err
	}
	slog.Info("seeded blueprints", "created", created, "requested", len(bps))
	return nil
}
