package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain"
)

var _ domain.Provider = (*Embedder)(nil)

// Config holds Ollama embedding settings.
type Config struct {
	ServerURL  string
	Model      string
	Dimensions int
	Name       string
	Logger     *zap.Logger
}

// Embedder is a remote embedding provider backed by an Ollama server through langchaingo.
type Embedder struct {
	llm        *ollama.LLM
	embedder   embeddings.Embedder
	dimensions int
	name       string
	logger     *zap.Logger
}

// NewEmbedder creates an Ollama-backed provider. No network call is made here.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	llm, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.ServerURL))
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{llm: llm, embedder: emb, dimensions: cfg.Dimensions, name: cfg.Name, logger: logger}, nil
}

// Name returns the provider identity used for index naming.
func (e *Embedder) Name() string { return e.name }

// Dimension returns the configured vector length.
func (e *Embedder) Dimension() int { return e.dimensions }

// Embed implements domain.Embedder. Ollama does not report token usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Debug("ollama embedding failed", zap.Error(err))
		return domain.EmbeddingResult{}, classify(err)
	}
	if len(vec) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrProviderUnavailable)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck embeds a probe string; Ollama has no cheaper authenticated endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("ollama probe: %w", err)
	}
	return nil
}

// classify maps langchaingo errors onto the provider taxonomy. The ollama client's
// status error type is internal to langchaingo, so rate limiting is detected by message.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("ollama: %w", domain.ErrTimeout)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return fmt.Errorf("ollama: %v: %w", err, domain.ErrProviderQuotaExceeded)
	}
	return fmt.Errorf("ollama: %v: %w", err, domain.ErrProviderUnavailable)
}
