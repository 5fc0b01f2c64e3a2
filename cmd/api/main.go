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
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "itemservice/docs"
	"itemservice/pkg/config"
	"itemservice/pkg/item"
	"itemservice/pkg/item/memory"
	pg "itemservice/pkg/item/postgres"
	redisrepo "itemservice/pkg/item/redis"
	"itemservice/pkg/logger"
	"itemservice/pkg/metrics"
	"itemservice/pkg/otel"
	"itemservice/pkg/web"
)

// @title Item Service API
// @version 1.0
// @description API for managing items
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "itemservice", otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: "itemservice",
		Host:        cfg.OTELHost,
		Probability: cfg.OTELProbability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()
	log.Info(ctx, "store ready", "store", cfg.Store)

	if cfg.Seed {
		if err := seed(ctx, repo, log); err != nil {
			return err
		}
	}

	srv, err := web.New(repo, log, metrics.New(), tp.Tracer("itemservice"))
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr, "tls", cfg.TLS())
		if cfg.TLS() {
			errc <- httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openRepository builds the configured store and a function releasing it.
func openRepository(ctx context.Context, cfg config.Config) (item.Repository, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		repo := pg.New(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return redisrepo.New(client, cfg.RedisPrefix), func() { client.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

// seed inserts the demo items unless a persistent store already holds data.
func seed(ctx context.Context, repo item.Repository, log *logger.Logger) error {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	if len(existing) > 0 {
		log.Info(ctx, "store not empty, skipping seed", "count", len(existing))
		return nil
	}
	seeded, err := item.Seed(ctx, repo)
	if err != nil {
		return err
	}
	log.Info(ctx, "seeded demo items", "count", len(seeded))
	return nil
}
