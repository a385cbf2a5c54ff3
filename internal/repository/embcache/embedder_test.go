package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/db"
	"github.com/kailas-cloud/scifinder/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockProvider{name: "openai", dim: 3, result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, "scifinder:emb_cache:openai:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockProvider{name: "openai", dim: 3}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := db.EncodeVector([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("inner must not be called on hit, got %d calls", inner.calls)
	}
}

func TestEmbed_StaleDimensionIsMiss(t *testing.T) {
	inner := &mockProvider{name: "local", dim: 2, result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return db.EncodeVector([]float32{1, 2, 3}), nil
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner call on stale entry, got %d", inner.calls)
	}
}

func TestEmbed_KeysDifferPerProvider(t *testing.T) {
	a := New(&mockProvider{name: "a"}, &mockKVStore{}, "p:", 0, nil, nil)
	b := New(&mockProvider{name: "b"}, &mockKVStore{}, "p:", 0, nil, nil)
	if a.cacheKey("same") == b.cacheKey("same") {
		t.Fatal("cache keys must include the provider name")
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockProvider{name: "openai", dim: 3, err: domain.ErrProviderUnavailable}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "test text")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestEmbed_StoreFailureFallsThrough(t *testing.T) {
	inner := &mockProvider{name: "openai", dim: 1, result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, errors.New("conn reset") }
	ms.setFn = func(context.Context, string, []byte, time.Duration) error { return errors.New("conn reset") }

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("cache failures must not fail the embed: %v", err)
	}
}

func TestEmbed_CacheMetrics(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockProvider{name: "m", dim: 1, result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce := New(inner, &mockKVStore{}, "", 0, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "x")
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("expected 1 miss, got %f", got)
	}
}
