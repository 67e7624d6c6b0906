package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell/cms/internal/app/migrate"
	"github.com/inkwell/cms/internal/cache"
	httpx "github.com/inkwell/cms/internal/http"
	"github.com/inkwell/cms/internal/repository/postgres"
	"github.com/inkwell/cms/internal/service/article"
	"github.com/inkwell/cms/internal/service/auth"
	"github.com/inkwell/cms/internal/service/recent"
	"github.com/inkwell/cms/pkg/config"
	"github.com/inkwell/cms/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", cfg.Environment, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	var articleCache *cache.ArticleCache
	if addr := strings.TrimSpace(cfg.CacheRedisAddr); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.CacheRedisPass, DB: cfg.CacheRedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("article cache unavailable", "error", err)
			rdb.Close()
		} else {
			articleCache = cache.NewArticleCache(rdb, cfg.CacheTTL)
			defer rdb.Close()
		}
		cancel()
	}

	authSvc := auth.New(repo, log, cfg)
	articleSvc := article.New(repo, articleCache, log)
	recents := recent.NewTracker(cfg.RecentCapacity)

	router := httpx.NewRouter(log, authSvc, articleSvc, recents, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
