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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"warehouse-reservation-backend/config"
	"warehouse-reservation-backend/internal/api"
	"warehouse-reservation-backend/internal/db"
	"warehouse-reservation-backend/internal/directory"
	"warehouse-reservation-backend/internal/lock"
	"warehouse-reservation-backend/internal/notification"
	"warehouse-reservation-backend/internal/parse"
	"warehouse-reservation-backend/internal/reminder"
	"warehouse-reservation-backend/internal/scheduling"
	"warehouse-reservation-backend/internal/store"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("reservationd stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB, store.Options{LockTimeout: cfg.Database.LockTimeout()})

	locker, closeLocker, err := newLocker(ctx, cfg.Locking)
	if err != nil {
		return err
	}
	defer closeLocker()

	times, err := parse.NewTimeParser(cfg.Timezone)
	if err != nil {
		return err
	}

	svc := scheduling.NewService(appStore, newResolver(cfg.Directory, appStore), locker,
		scheduling.WithLogger(logger.With("component", "scheduling")))

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
		pool.Start(ctx)

		sweeper := reminder.NewSweeper(reminder.Config{
			Enabled:  cfg.Reminders.Enabled,
			Interval: cfg.Reminders.Interval,
			Repeat:   time.Duration(cfg.Reminders.RepeatMinutes) * time.Minute,
		}, svc, pool, logger)
		go sweeper.Run(ctx)
	} else {
		logger.Warn("VAPID keys not configured, push reminders are disabled")
	}

	router := api.NewRouter(api.NewHandler(svc, appStore, times, webpushOptions), api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateBurst:       cfg.Server.RateBurst,
		ClientIDHeader:  cfg.Server.ClientIDHeader,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		AllowOrigins:    cfg.Server.AllowOrigins,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping services")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	logger.Info("server gracefully stopped")
	return nil
}

func newLocker(ctx context.Context, cfg config.LockingConfig) (lock.Locker, func(), error) {
	if cfg.Backend != "redis" {
		return lock.NewLocal(cfg.Wait()), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("using redis locks", "addr", cfg.RedisAddr)

	return lock.NewRedis(client, lock.RedisOptions{
		Prefix: cfg.Prefix,
		Wait:   cfg.Wait(),
		TTL:    cfg.TTL(),
	}), func() { client.Close() }, nil
}

func newResolver(cfg config.DirectoryConfig, s store.Store) directory.Resolver {
	if cfg.Mode != "remote" {
		return directory.NewLocal(s)
	}
	bases := make(map[directory.Kind]string, len(cfg.BaseURLs))
	for kind, base := range cfg.BaseURLs {
		bases[directory.Kind(kind)] = base
	}
	remote := directory.NewRemote(directory.RemoteConfig{
		BaseURLs:  bases,
		Headers:   cfg.Headers,
		HTTPProxy: cfg.HTTPProxy,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	return directory.NewCached(remote, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}
