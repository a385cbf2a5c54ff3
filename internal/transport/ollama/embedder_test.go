package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/scifinder/internal/domain"
)

// ollamaServer answers both the legacy /api/embeddings and the newer /api/embed shapes.
func ollamaServer(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding":  vec,
			"embeddings": [][]float32{vec},
		})
	}))
}

func TestEmbedder_Embed(t *testing.T) {
	srv := ollamaServer(t, []float32{0.5, 0.25, 0.125})
	defer srv.Close()

	emb, err := NewEmbedder(&Config{ServerURL: srv.URL, Model: "nomic-embed-text", Dimensions: 3, Name: "ollama-nomic"})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}

	res, err := emb.Embed(context.Background(), "graph neural networks")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != emb.Dimension() {
		t.Fatalf("expected %d dims, got %d", emb.Dimension(), len(res.Embedding))
	}
	if emb.Name() != "ollama-nomic" {
		t.Errorf("Name() = %q", emb.Name())
	}
}

func TestEmbedder_ServerDown(t *testing.T) {
	srv := ollamaServer(t, nil)
	url := srv.URL
	srv.Close()

	emb, err := NewEmbedder(&Config{ServerURL: url, Model: "m", Dimensions: 3})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	_, err = emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if err := emb.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check failure")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{context.DeadlineExceeded, domain.ErrTimeout},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), domain.ErrTimeout},
		{errors.New("status code 429: too many requests"), domain.ErrProviderQuotaExceeded},
		{errors.New("connection refused"), domain.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		if got := classify(tt.err); !errors.Is(got, tt.want) {
			t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
