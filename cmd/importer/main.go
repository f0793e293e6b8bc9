package main

import (
	"context"
	"database/sql"
	"flag"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"rent_estimator/internal/adapters/artifact"
	"rent_estimator/internal/adapters/observability"
	"rent_estimator/internal/app"
	"rent_estimator/internal/shared"
	mysqlrepo "rent_estimator/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	path := flag.String("file", cfg.ArtifactPath, "bundle file to import")
	activate := flag.Bool("activate", true, "make the imported artifact the active one")
	flag.Parse()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	doc, err := artifact.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("read bundle failed")
	}
	// decode the model and tables before touching the store
	bundle, err := doc.Bundle()
	if err != nil {
		log.Fatal().Err(err).Msg("bundle is invalid")
	}

	log.Info().
		Str("file", *path).
		Str("version", doc.Version).
		Int("points", len(bundle.PointMean)).
		Int("workers", cfg.ImportWorkers).
		Int("batch", cfg.ImportBatchSize).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	imp := app.NewImportService(mysqlrepo.New(db))
	if err := imp.Begin(ctx, doc.Header()); err != nil {
		log.Fatal().Err(err).Msg("artifact upsert failed")
	}

	sem := semaphore.NewWeighted(int64(max(cfg.ImportWorkers, 1)))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for i, batch := range app.Batches(app.PointStats(bundle), cfg.ImportBatchSize) {
		i, batch := i, batch // per-iteration copies (go directive < 1.22)
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := imp.ImportBatch(ctx, doc.Version, batch); err != nil {
				failed.Add(1)
				log.Warn().Int("batch", i).Err(err).Msg("batch import failed")
				return
			}
			log.Debug().Int("batch", i).Int("rows", len(batch)).Msg("batch ok")
		}()
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed_batches", n).Str("version", doc.Version).Msg("import incomplete, artifact left inactive")
	}
	if !*activate {
		log.Info().Str("version", doc.Version).Msg("import completed, artifact left inactive")
		return
	}
	if err := imp.Activate(ctx, doc.Version); err != nil {
		log.Fatal().Err(err).Msg("activate failed")
	}
	log.Info().Str("version", doc.Version).Msg("import completed")
}
