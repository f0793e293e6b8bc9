package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"rent_estimator/internal/adapters/artifact"
	server "rent_estimator/internal/adapters/http_server"
	"rent_estimator/internal/adapters/observability"
	redisad "rent_estimator/internal/adapters/redis"
	"rent_estimator/internal/app"
	"rent_estimator/internal/domain"
	"rent_estimator/internal/shared"
	mysqlrepo "rent_estimator/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// the bundle must load before anything listens
	bundle, err := loadBundle(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.ArtifactSource).Msg("artifact load failed")
	}
	observability.ObserveArtifact(bundle.Version, cfg.ArtifactSource, len(bundle.PointMean))
	log.Info().
		Str("version", bundle.Version).
		Str("source", cfg.ArtifactSource).
		Int("points", len(bundle.PointMean)).
		Msg("artifact loaded")

	// deps
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, estimate cache disabled")
			_ = rc.Close()
		} else {
			cache = rc
			defer rc.Close()
		}
		cancel()
	}

	est := app.NewEstimateService(bundle, cache, cfg.CacheTTL, cfg.LowSample)
	cat := app.NewCatalog(bundle)

	var limiter *rate.Limiter
	if cfg.EstimateRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EstimateRPS), int(cfg.EstimateRPS)+1)
	}

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{E: est, C: cat, Limiter: limiter})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("API stopped")
}

func loadBundle(cfg shared.Config) (*domain.Bundle, error) {
	if cfg.ArtifactSource != shared.SourceMySQL {
		return artifact.LoadFile(cfg.ArtifactPath)
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return artifact.LoadStore(ctx, mysqlrepo.New(db))
}
