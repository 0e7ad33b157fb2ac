package main

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/config"
	dbRedis "github.com/kailas-cloud/pdfrag/internal/db/redis"
	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/embedding/hashing"
	"github.com/kailas-cloud/pdfrag/internal/metrics"
	"github.com/kailas-cloud/pdfrag/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/pdfrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/pdfrag/internal/usecase/embedding"
)

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// baseEmbedder creates the provider at the bottom of the decorator chain.
func baseEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) domain.Embedder {
	if cfg.Provider == "openai" {
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	}
	return hashing.New(cfg.Dimensions)
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented -> instruction.
func buildEmbedder(
	base domain.Embedder,
	cfg config.Config,
	instruction string,
	cache *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, cacheKeyPrefix(cfg), metrics.EmbeddingCacheTotal, logger)
	}

	model := cfg.Embedding.Model
	if model == "" {
		model = cfg.Embedding.Provider
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, model, 0, logger)

	// Outermost so the cache key covers the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// cacheKeyPrefix scopes cached vectors to the provider, model and dimension
// so switching any of them never serves stale vectors.
func cacheKeyPrefix(cfg config.Config) string {
	return cfg.Cache.KeyPrefix + cfg.Embedding.Provider + ":" + cfg.Embedding.Model + ":" +
		strconv.Itoa(cfg.Embedding.Dimensions) + ":"
}
