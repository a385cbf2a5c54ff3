package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/metrics"
)

var _ domain.Provider = (*InstrumentedEmbedder)(nil)

// InstrumentedEmbedder wraps a provider with a per-call deadline, dimension
// enforcement, logging and Prometheus metrics.
// Transports only classify their errors; this layer owns everything observable.
type InstrumentedEmbedder struct {
	inner   domain.Provider
	timeout time.Duration
	logger  *zap.Logger
}

// NewInstrumentedEmbedder wraps a provider. A zero timeout leaves the caller's deadline in charge.
func NewInstrumentedEmbedder(inner domain.Provider, timeout time.Duration, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, timeout: timeout, logger: logger}
}

// Name returns the wrapped provider's identity.
func (p *InstrumentedEmbedder) Name() string { return p.inner.Name() }

// Dimension returns the wrapped provider's vector length.
func (p *InstrumentedEmbedder) Dimension() int { return p.inner.Dimension() }

// Embed delegates to the inner provider and guarantees that a successful
// result has exactly Dimension() components.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	provider := p.inner.Name()
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)
	metrics.EmbeddingRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())

	if err == nil {
		err = domain.CheckDimension(result.Embedding, p.inner.Dimension())
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, errorType(err)).Inc()
		p.logger.Error("Embedding request failed",
			zap.String("provider", provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "success").Inc()
	if result.PromptTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(provider, "prompt").Add(float64(result.PromptTokens))
	}
	if result.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(provider, "total").Add(float64(result.TotalTokens))
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", provider),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner provider when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("provider %s: %w", p.inner.Name(), err)
	}
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrProviderQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return "dimension"
	default:
		return "other"
	}
}
