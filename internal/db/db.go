package db

import (
	"context"
	"time"
)

// Store is everything the Redis Stack driver offers. main holds the Store;
// repositories take only the slice they call.
type Store interface {
	Pinger
	HashWriter
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger is used by readiness and /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one hash of a pipelined write.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashWriter stores article documents as hashes.
type HashWriter interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HSetMulti pipelines all items in one round trip and returns one error slot per item.
	HSetMulti(ctx context.Context, items []HashSetItem) []error
}

// KVStore backs the embedding cache.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites key. ttl <= 0 stores it without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager covers index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DropIndex removes the index; deleteDocs also removes the indexed hashes (FT.DROPINDEX DD).
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs KNN queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
