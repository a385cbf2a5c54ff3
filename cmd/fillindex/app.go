package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/config"
	"github.com/kailas-cloud/scifinder/internal/dataset"
	dbRedis "github.com/kailas-cloud/scifinder/internal/db/redis"
	"github.com/kailas-cloud/scifinder/internal/localmodel"
	logpkg "github.com/kailas-cloud/scifinder/internal/logger"
	"github.com/kailas-cloud/scifinder/internal/metrics"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
	"github.com/kailas-cloud/scifinder/internal/provider"
	articlerepo "github.com/kailas-cloud/scifinder/internal/repository/article"
	"github.com/kailas-cloud/scifinder/internal/usecase/fill"
	"github.com/kailas-cloud/scifinder/internal/version"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "fillindex",
		Usage:   "Rebuild the article index from a dataset file",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Configuration environment (local, dev, prod)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Explicit configuration file, overrides --env lookup",
			},
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "Dataset file (.csv or .parquet), overrides ingest.dataset_path",
			},
			&cli.StringFlag{
				Name:    "mapping",
				Aliases: []string{"m"},
				Usage:   "Index mapping file (YAML or JSON), overrides ingest.mapping_path",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Documents per bulk write, overrides ingest.batch_size",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Action: loadCommand,
		Commands: []*cli.Command{
			{
				Name:   "build-model",
				Usage:  "Fit the local TF-IDF embedding model on dataset summaries",
				Action: buildModelCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    "Dataset file (.csv or .parquet)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Where to write the model artifact",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Model name, part of the index identity",
						Value: "tfidf",
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Vector length",
						Value: 384,
					},
				},
			},
		},
	}
}

func loadConfig(cCtx *cli.Context) (config.Config, string, error) {
	env := cCtx.String("env")
	var (
		cfg config.Config
		err error
	)
	if path := cCtx.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", err
	}

	if v := cCtx.String("dataset"); v != "" {
		cfg.Ingest.DatasetPath = v
	}
	if v := cCtx.String("mapping"); v != "" {
		cfg.Ingest.MappingPath = v
	}
	if v := cCtx.Int("batch-size"); v > 0 {
		cfg.Ingest.BatchSize = v
	}
	if v := cCtx.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, env, nil
}

func loadCommand(cCtx *cli.Context) error {
	cfg, env, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// маппинг и датасет проверяются до любой записи в индекс
	mapping, err := articlerepo.LoadMapping(cfg.Ingest.MappingPath)
	if err != nil {
		return fmt.Errorf("load mapping %s: %w", cfg.Ingest.MappingPath, err)
	}
	src, err := dataset.Open(cfg.Ingest.DatasetPath)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = src.Close() }()

	logger.Info("Starting index fill",
		zap.String("version", version.Version),
		zap.String("dataset", cfg.Ingest.DatasetPath),
		zap.String("mapping", cfg.Ingest.MappingPath),
		zap.Int("batch_size", cfg.Ingest.BatchSize),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	prov, err := provider.New(&cfg.Embedding, store, cfg.Index.KeyPrefix, logger)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}
	metrics.RegisterIngestMetrics()

	repo := articlerepo.New(store, prov, mapping, cfg.Index.KeyPrefix,
		time.Duration(cfg.Database.OpTimeoutSec)*time.Second)
	pipeline := fill.New(repo, normalizer.New(prov), cfg.Ingest.BatchSize, logger)

	report, err := pipeline.Run(ctx, src)
	logger.Info("Index fill finished",
		zap.String("index", repo.IndexName()),
		zap.Int("rows", report.Rows),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("batches", report.Batches),
		zap.Error(err),
	)
	return err
}

func buildModelCommand(cCtx *cli.Context) error {
	name := strings.TrimSpace(cCtx.String("name"))
	dim := cCtx.Int("dimensions")

	src, err := dataset.Open(cCtx.String("dataset"))
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = src.Close() }()

	var corpus []string
	err = dataset.ForEach(src, func(_ int, row dataset.Row) error {
		summary := strings.TrimSpace(row.Summary)
		if summary == "" {
			return nil
		}
		corpus = append(corpus, strings.TrimSpace(row.Title)+". "+summary)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	artifact, err := localmodel.Fit(name, dim, corpus)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}
	// проверяем артефакт тем же путём, что и при загрузке
	if _, err := localmodel.New(artifact); err != nil {
		return err
	}

	out := filepath.Clean(cCtx.String("out"))
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := artifact.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	fmt.Fprintf(cCtx.App.Writer, "model %q (%d dims, %d terms) written to %s\n",
		name, dim, len(artifact.IDF), out)
	return nil
}
