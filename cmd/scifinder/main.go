package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/config"
	dbRedis "github.com/kailas-cloud/scifinder/internal/db/redis"
	"github.com/kailas-cloud/scifinder/internal/extract"
	logpkg "github.com/kailas-cloud/scifinder/internal/logger"
	"github.com/kailas-cloud/scifinder/internal/metrics"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
	"github.com/kailas-cloud/scifinder/internal/provider"
	articlerepo "github.com/kailas-cloud/scifinder/internal/repository/article"
	chiTransport "github.com/kailas-cloud/scifinder/internal/transport/chi"
	healthuc "github.com/kailas-cloud/scifinder/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/scifinder/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/scifinder/internal/usecase/search"
	"github.com/kailas-cloud/scifinder/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting scifinder API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterIngestMetrics()

	// Провайдер выбирается один раз: от его имени зависит физический индекс.
	prov, err := provider.New(&cfg.Embedding, store, cfg.Index.KeyPrefix, logger)
	if err != nil {
		logger.Fatal("Failed to build embedding provider", zap.Error(err))
	}

	mapping, err := articlerepo.LoadMapping(cfg.Ingest.MappingPath)
	if err != nil {
		logger.Fatal("Failed to load index mapping", zap.String("path", cfg.Ingest.MappingPath), zap.Error(err))
	}

	repo := articlerepo.New(store, prov, mapping, cfg.Index.KeyPrefix,
		time.Duration(cfg.Database.OpTimeoutSec)*time.Second)
	created, err := repo.EnsureIndex(ctx)
	if err != nil {
		logger.Fatal("Failed to ensure index", zap.String("index", repo.IndexName()), zap.Error(err))
	}
	logger.Info("Index ready", zap.String("index", repo.IndexName()), zap.Bool("created", created))

	norm := normalizer.New(prov)
	ingestSvc := ingestuc.New(repo, norm, extract.Text, logger)
	searchSvc := searchuc.New(repo, prov, cfg.Index.NumCandidates, logger)
	healthSvc := healthuc.New(store, repo, prov, prov.Name())

	server := chiTransport.NewServer(ingestSvc, searchSvc, healthSvc, chiTransport.Options{
		DefaultTopK:    cfg.Index.DefaultTopK,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		APIKeys:        cfg.Auth.APIKeys,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
