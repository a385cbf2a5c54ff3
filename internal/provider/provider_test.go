package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/scifinder/internal/config"
	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/localmodel"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"openai-text-embedding-3-small": "openai-text-embedding-3-small",
		"ollama-nomic-embed-text:v1.5":  "ollama-nomic-embed-text-v1-5",
		"Local TF/IDF":                  "local-tf-idf",
		"::":                            "default",
	}
	for in, want := range tests {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeModel(t *testing.T) string {
	t.Helper()
	a, err := localmodel.Fit("tfidf-v1", 16, []string{"graph neural networks", "protein folding"})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := a.Save(f); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestNew_Local(t *testing.T) {
	cfg := &config.EmbeddingConfig{Provider: config.ProviderLocal, TimeoutSec: 1, Local: config.LocalConfig{ModelPath: writeModel(t)}}

	p, err := New(cfg, nil, "scifinder:", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "local-tfidf-v1-16" {
		t.Errorf("unexpected name %q", p.Name())
	}
	if p.Dimension() != 16 {
		t.Errorf("unexpected dimension %d", p.Dimension())
	}
	res, err := p.Embed(context.Background(), "neural protein")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 16 {
		t.Fatalf("expected 16 dims, got %d", len(res.Embedding))
	}
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("local provider must be healthy: %v", err)
	}
}

func TestNew_LocalMissingModel(t *testing.T) {
	cfg := &config.EmbeddingConfig{Provider: config.ProviderLocal, Local: config.LocalConfig{ModelPath: "/nonexistent/model.json"}}
	_, err := New(cfg, nil, "", nil)
	if !errors.Is(err, domain.ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}

func TestNew_Remote(t *testing.T) {
	cfg := &config.EmbeddingConfig{Provider: config.ProviderRemote, Model: "text-embedding-3-small", Dimensions: 1536}
	p, err := New(cfg, nil, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "openai-text-embedding-3-small-1536" || p.Dimension() != 1536 {
		t.Errorf("unexpected provider %s/%d", p.Name(), p.Dimension())
	}
}

func TestNew_DimensionChangesIdentity(t *testing.T) {
	names := make(map[string]int)
	for _, dim := range []int{512, 1536} {
		cfg := &config.EmbeddingConfig{Provider: config.ProviderRemote, Model: "text-embedding-3-small", Dimensions: dim}
		p, err := New(cfg, nil, "", nil)
		if err != nil {
			t.Fatalf("New(%d): %v", dim, err)
		}
		names[p.Name()] = dim
	}
	if len(names) != 2 {
		t.Fatalf("same model with two dimensions must get two names, got %v", names)
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		kind, model string
		dim         int
		want        string
	}{
		{"ollama", "nomic-embed-text:v1.5", 768, "ollama-nomic-embed-text-v1-5-768"},
		{"openai", "text-embedding-3-small", 0, "openai-text-embedding-3-small"},
	}
	for _, tt := range tests {
		if got := identity(tt.kind, tt.model, tt.dim); got != tt.want {
			t.Errorf("identity(%q, %q, %d) = %q, want %q", tt.kind, tt.model, tt.dim, got, tt.want)
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New(&config.EmbeddingConfig{Provider: "bert"}, nil, "", nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
