package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/invitame/auth-service/internal/config"
	"github.com/invitame/auth-service/internal/limiter"
	"github.com/invitame/auth-service/internal/service"
	"github.com/invitame/auth-service/internal/storage"
	"github.com/invitame/auth-service/internal/storage/postgres"
	transport "github.com/invitame/auth-service/internal/transport/http"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("postgres_connected")

	// Лимитер: Redis при заданном URL (разделяемый между репликами),
	// иначе — локальный in-memory.
	lim, closeLimiter, err := setupLimiter(cfg)
	if err != nil {
		log.Error("limiter_init_failed", slog.String("err", err.Error()))
		rootCancel()
		str.Close()
		os.Exit(1)
	}

	srvc := service.New(str, lim, cfg.Auth)
	log.Info("service_initialized")

	var ready atomic.Bool

	router := transport.NewRouter(srvc, transport.Options{
		Logger:        log,
		Timeout:       cfg.Timeouts.Service,
		SecureCookies: cfg.HTTP.SecureCookies,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		Ready:         &ready,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Фоновая очистка просроченных сессий.
	startSessionJanitor(rootCtx, str, log, 30*time.Minute)

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	ready.Store(false)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
	}

	// Явная очистка перед выходом.
	shutdownCancel()
	rootCancel()
	closeLimiter()
	str.Close()

	log.Info("service_stopped")
	os.Exit(0)
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

// setupLimiter выбирает реализацию лимитера по конфигурации.
func setupLimiter(cfg *config.Config) (limiter.LoginLimiter, func(), error) {
	if cfg.Redis.RedisURL == "" {
		return limiter.NewMemory(cfg.Limiter.MaxAttempts, cfg.Limiter.LockoutWindow), func() {}, nil
	}

	rl, err := limiter.NewRedis(cfg.Redis.RedisURL, "auth:fl:", cfg.Limiter.MaxAttempts, cfg.Limiter.LockoutWindow)
	if err != nil {
		return nil, nil, err
	}

	return rl, func() { _ = rl.Close() }, nil
}

// startSessionJanitor запускает фоновую задачу, которая периодически
// удаляет просроченные сессии из хранилища.
func startSessionJanitor(ctx context.Context, storage storage.Storage, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := storage.DeleteExpiredSessions(ctx, time.Now().UTC()); err != nil {
					log.Error("session_janitor_failed", slog.String("err", err.Error()))
				}
			}
		}
	}()
}
