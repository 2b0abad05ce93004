package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rajaravivarma-r/darkwire.io/config"
	"github.com/rajaravivarma-r/darkwire.io/internal/audit"
	"github.com/rajaravivarma-r/darkwire.io/internal/relay"
	"github.com/rajaravivarma-r/darkwire.io/internal/store"
	httpx "github.com/rajaravivarma-r/darkwire.io/internal/transport/http"
	"github.com/rajaravivarma-r/darkwire.io/internal/transport/ws"
	"github.com/rajaravivarma-r/darkwire.io/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting darkwire server",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "store", cfg.Store.Backend)

	// --- room store ---
	ctx := context.Background()
	var roomStore store.RoomStore
	switch cfg.Store.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		roomStore = store.NewRedisStore(rdb, cfg.Store.TTL())
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		roomStore = store.NewPostgresStore(pool)
	default:
		roomStore = store.NewMemoryStore()
	}

	// --- relay & audit ---
	fetcher := relay.NewHTTPFetcher(cfg.Relay.Timeout(), cfg.Relay.MaxFetchBytes)
	rly := relay.New(fetcher, cfg.Relay.Timeout())
	bookmarks := audit.New(cfg.Audit.BookmarkURL)

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, roomStore, rly, bookmarks)

	// --- HTTP ---
	router := httpx.NewRouter(wsServer)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
