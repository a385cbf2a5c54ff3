// Package localmodel is the in-process embedding provider: a hashed TF-IDF
// vectoriser whose vocabulary statistics are loaded once from a JSON artifact.
package localmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/scifinder/internal/domain"
)

var _ domain.Provider = (*Model)(nil)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Artifact is the on-disk model format.
type Artifact struct {
	Name       string             `json:"name"`
	Dimensions int                `json:"dimensions"`
	DefaultIDF float64            `json:"default_idf"`
	IDF        map[string]float64 `json:"idf"`
	Stopwords  []string           `json:"stopwords,omitempty"`
}

// Model is immutable after Load and safe for concurrent use.
type Model struct {
	name       string
	dim        int
	defaultIDF float64
	idf        map[string]float64
	stopwords  map[string]struct{}
}

// Load reads a model artifact from disk. Any failure is reported as domain.ErrModelLoad.
func Load(path string) (*Model, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open model %s: %v: %w", path, err, domain.ErrModelLoad)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a model artifact from r.
func Decode(r io.Reader) (*Model, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model: %v: %w", err, domain.ErrModelLoad)
	}
	return New(a)
}

// New materializes a model from an artifact.
func New(a Artifact) (*Model, error) {
	if a.Name == "" {
		return nil, fmt.Errorf("model name is required: %w", domain.ErrModelLoad)
	}
	if a.Dimensions <= 0 {
		return nil, fmt.Errorf("model dimensions must be positive, got %d: %w", a.Dimensions, domain.ErrModelLoad)
	}
	if a.DefaultIDF <= 0 {
		a.DefaultIDF = 1
	}

	stop := defaultStopwords()
	if len(a.Stopwords) > 0 {
		stop = make(map[string]struct{}, len(a.Stopwords))
		for _, w := range a.Stopwords {
			stop[strings.ToLower(w)] = struct{}{}
		}
	}

	idf := make(map[string]float64, len(a.IDF))
	for term, v := range a.IDF {
		idf[strings.ToLower(term)] = v
	}

	return &Model{name: a.Name, dim: a.Dimensions, defaultIDF: a.DefaultIDF, idf: idf, stopwords: stop}, nil
}

// Name returns the model identity used for index naming.
func (m *Model) Name() string { return m.name }

// Dimension returns the fixed vector length.
func (m *Model) Dimension() int { return m.dim }

// Embed hashes each token into one of Dimension buckets, weights it by tf*idf
// and L2-normalizes. Text with no known tokens yields a zero vector.
func (m *Model) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	tokens := m.tokenize(text)
	vec := make([]float32, m.dim)
	if len(tokens) == 0 {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	acc := make([]float64, m.dim)
	total := float64(len(tokens))
	for term, n := range tf {
		w, ok := m.idf[term]
		if !ok {
			w = m.defaultIDF
		}
		acc[bucket(term, m.dim)] += float64(n) / total * w
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		if norm > 0 {
			vec[i] = float32(v / norm)
		}
	}

	return domain.EmbeddingResult{Embedding: vec, PromptTokens: len(tokens), TotalTokens: len(tokens)}, nil
}

func (m *Model) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := m.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func bucket(term string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return int(h.Sum32() % uint32(dim))
}

// Fit computes smoothed IDF statistics over a corpus and returns a ready artifact.
func Fit(name string, dim int, corpus []string) (Artifact, error) {
	if len(corpus) == 0 {
		return Artifact{}, fmt.Errorf("empty corpus")
	}
	stop := defaultStopwords()
	probe := &Model{stopwords: stop}

	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, t := range probe.tokenize(doc) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	if len(df) == 0 {
		return Artifact{}, fmt.Errorf("no tokens found in corpus")
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(df))
	for term, c := range df {
		idf[term] = math.Log((1+n)/(1+float64(c))) + 1
	}

	words := make([]string, 0, len(stop))
	for w := range stop {
		words = append(words, w)
	}
	sort.Strings(words)

	return Artifact{
		Name:       name,
		Dimensions: dim,
		DefaultIDF: math.Log(1+n) + 1, // unseen terms weigh as a term seen in zero documents
		IDF:        idf,
		Stopwords:  words,
	}, nil
}

// Save writes the artifact as JSON.
func (a Artifact) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off",
		"own", "same", "too", "very", "can", "will", "just", "should", "now", "we", "our", "which", "also",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
