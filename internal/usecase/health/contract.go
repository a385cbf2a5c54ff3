package health

import "context"

// Pinger checks Redis availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexProber reports whether the active article index exists.
type IndexProber interface {
	IndexExists(ctx context.Context) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
