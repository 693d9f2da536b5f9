package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/db"
	httpx "github.com/geocoder89/bloghub/internal/http"
	"github.com/geocoder89/bloghub/internal/http/handlers"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/repo/memory"
	"github.com/geocoder89/bloghub/internal/repo/postgres"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const dbConnectAttempts = 6

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: "bloghub-api",
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(tctx); err != nil {
			log.Warn("tracer shutdown failed", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Config:  cfg,
		Tokens:  auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()),
		Prom:    prom,
		Metrics: reg,
		Checks:  map[string]handlers.Pinger{},
	}

	closeStore, err := openStore(ctx, log, cfg, prom, &deps)
	if err != nil {
		return err
	}
	defer closeStore()

	seeded, err := db.EnsureAdminUser(ctx, deps.Users, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	closeCache := openCache(ctx, log, cfg, &deps)
	defer closeCache()

	if err := openStorage(ctx, cfg, &deps); err != nil {
		return err
	}

	// set up routers with the log
	router := httpx.NewRouter(log, deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "uploads", cfg.UploadBackend)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// openStore wires the repositories for the configured driver and registers
// its readiness check.
func openStore(ctx context.Context, log *slog.Logger, cfg config.Config, prom *observability.Prom, deps *httpx.Deps) (func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using the in-memory store, data is lost on restart")

		store := memory.NewStore()
		deps.Users = store.Users()
		deps.Categories = store.Categories()
		deps.Posts = store.Posts()

		return func() {}, nil

	case config.StoreDriverPostgres:
		pool, err := db.Connect(ctx, log, cfg.DBURL, cfg.DBMaxConns, dbConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}

		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Categories = postgres.NewCategoriesRepo(pool, prom)
		deps.Posts = postgres.NewPostsRepo(pool, prom)
		deps.Checks["postgres"] = pool.Ping

		return pool.Close, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// openCache uses Redis when configured and the in-process cache otherwise.
// An unreachable Redis only degrades readiness; listings fall back to the store.
func openCache(ctx context.Context, log *slog.Logger, cfg config.Config, deps *httpx.Deps) func() {
	if cfg.RedisAddr == "" {
		deps.Cache = cache.New(cfg.CacheTTL)
		return func() {}
	}

	rc := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pctx); err != nil {
		log.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "err", err)
	}

	deps.Cache = rc
	deps.Checks["redis"] = rc.Ping

	return func() {
		if err := rc.Close(); err != nil {
			log.Warn("redis close failed", "err", err)
		}
	}
}

func openStorage(ctx context.Context, cfg config.Config, deps *httpx.Deps) error {
	switch cfg.UploadBackend {
	case config.UploadBackendDisk:
		disk, err := upload.NewDiskStorage(cfg.UploadDir, cfg.UploadPublicPrefix)
		if err != nil {
			return fmt.Errorf("upload dir: %w", err)
		}
		deps.Storage = disk

	case config.UploadBackendS3:
		s3, err := upload.NewS3Storage(ctx, upload.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return fmt.Errorf("s3 storage: %w", err)
		}
		deps.Storage = upload.NewProtectedStorage(s3, upload.ProtectedConfig{})

	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.UploadBackend)
	}

	return nil
}
