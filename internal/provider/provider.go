// Package provider builds the single embedding provider selected by configuration.
package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/config"
	"github.com/kailas-cloud/scifinder/internal/db"
	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/localmodel"
	"github.com/kailas-cloud/scifinder/internal/metrics"
	"github.com/kailas-cloud/scifinder/internal/repository/embcache"
	"github.com/kailas-cloud/scifinder/internal/transport/ollama"
	"github.com/kailas-cloud/scifinder/internal/transport/openai"
	"github.com/kailas-cloud/scifinder/internal/usecase/embedding"
)

// Provider is the decorated provider handed to the services.
type Provider interface {
	domain.Provider
	domain.HealthChecker
}

// New constructs the base provider for cfg.Provider and wraps it:
// base → instrumented → cache (when enabled).
// kv may be nil when the cache is disabled.
func New(cfg *config.EmbeddingConfig, kv db.KVStore, keyPrefix string, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := newBase(cfg, logger)
	if err != nil {
		return nil, err
	}
	if !db.IsValidIdentifier(base.Name()) {
		return nil, fmt.Errorf("provider name %q is not a valid index identifier", base.Name())
	}

	metrics.RegisterEmbeddingMetrics()
	var p Provider = embedding.NewInstrumentedEmbedder(base, time.Duration(cfg.TimeoutSec)*time.Second, logger)

	if cfg.Cache && kv != nil {
		ttl := time.Duration(cfg.CacheTTL) * time.Second
		p = embcache.New(p, kv, keyPrefix, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	logger.Info("Embedding provider ready",
		zap.String("kind", cfg.Provider),
		zap.String("name", p.Name()),
		zap.Int("dimensions", p.Dimension()),
		zap.Bool("cache", cfg.Cache && kv != nil),
	)
	return p, nil
}

func newBase(cfg *config.EmbeddingConfig, logger *zap.Logger) (domain.Provider, error) {
	switch cfg.Provider {
	case config.ProviderRemote:
		return openai.NewEmbedder(&openai.Config{
			APIKey:     cfg.Remote.APIKey,
			BaseURL:    cfg.Remote.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Name:       identity("openai", cfg.Model, cfg.Dimensions),
			Logger:     logger,
		}), nil
	case config.ProviderOllama:
		e, err := ollama.NewEmbedder(&ollama.Config{
			ServerURL:  cfg.Ollama.ServerURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Name:       identity("ollama", cfg.Model, cfg.Dimensions),
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama provider: %w", err)
		}
		return e, nil
	case config.ProviderLocal:
		m, err := localmodel.Load(cfg.Local.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("local provider: %w", err)
		}
		return renamed{Provider: m, name: identity("local", m.Name(), m.Dimension())}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// identity names the vector space: kind, model and dimension. Changing any of
// them moves the provider to a different index.
func identity(kind, model string, dim int) string {
	name := kind + "-" + model
	if dim > 0 {
		name += "-" + strconv.Itoa(dim)
	}
	return Sanitize(name)
}

// renamed overrides the identity of a provider without touching its vectors.
type renamed struct {
	domain.Provider
	name string
}

func (r renamed) Name() string { return r.name }

// Sanitize maps a free-form model label onto [a-zA-Z0-9_-]; ':' is reserved as the key separator.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "default"
	}
	return out
}
