package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/chunker"
	"github.com/kailas-cloud/pdfrag/internal/config"
	dbRedis "github.com/kailas-cloud/pdfrag/internal/db/redis"
	"github.com/kailas-cloud/pdfrag/internal/extract"
	logpkg "github.com/kailas-cloud/pdfrag/internal/logger"
	"github.com/kailas-cloud/pdfrag/internal/metrics"
	corpusrepo "github.com/kailas-cloud/pdfrag/internal/repository/corpus"
	"github.com/kailas-cloud/pdfrag/internal/repository/ledger"
	openaiTransport "github.com/kailas-cloud/pdfrag/internal/transport/openai"
	chatuc "github.com/kailas-cloud/pdfrag/internal/usecase/chat"
	corpusuc "github.com/kailas-cloud/pdfrag/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/pdfrag/internal/usecase/health"
)

// app is the composition root shared by every command.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	pdf    *extract.PDF
	corpus *corpusuc.Service
	chat   *chatuc.Service
	ledger *ledger.Repo
	health *healthuc.Service
	cache  *dbRedis.Store
}

// newApp loads config, wires the pipeline and loads the persisted corpus.
// A non-empty logFile, relative to the data dir, takes logging off stderr,
// e.g. while the terminal UI owns the screen.
func newApp(env, logFile string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	for _, dir := range []string{cfg.Storage.DataDir, cfg.Storage.UploadDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	var outputs []string
	if logFile != "" {
		outputs = append(outputs, filepath.Join(cfg.Storage.DataDir, logFile))
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, outputs...)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	a := &app{env: env, cfg: cfg, logger: logger}

	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		a.cache = store
	}

	base := baseEmbedder(cfg.Embedding, logger)
	docEmbedder := buildEmbedder(base, cfg, cfg.Embedding.DocumentInstruction, a.cache, logger)
	queryEmbedder := buildEmbedder(base, cfg, cfg.Embedding.QueryInstruction, a.cache, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", a.cache != nil),
	)

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	a.pdf = extract.NewPDF(logger)
	a.corpus = corpusuc.New(
		corpusrepo.New(cfg.Storage.DataDir),
		a.pdf, splitter, docEmbedder, queryEmbedder, logger,
	).WithTopK(cfg.Retrieval.TopK)

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:  cfg.Completion.APIKey,
		Timeout: time.Duration(cfg.Completion.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	a.chat = chatuc.New(a.corpus, completer, a.pdf, cfg.Retrieval.TopK, logger)
	a.ledger = ledger.New(cfg.Storage.DataDir, logger)

	// Nil interface, not a typed nil pointer, when the cache is off.
	var pinger healthuc.CachePinger
	if a.cache != nil {
		pinger = a.cache
	}
	a.health = healthuc.New(newEmbeddingHealthChecker(docEmbedder), pinger, a.corpus)

	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	_ = a.logger.Sync()
}

// uploadDir returns the absolute upload directory.
func (a *app) uploadDir() string {
	dir, err := filepath.Abs(a.cfg.Storage.UploadDir)
	if err != nil {
		return a.cfg.Storage.UploadDir
	}
	return dir
}
