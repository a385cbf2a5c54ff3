package domain

import "errors"

var (
	// ErrProviderUnavailable signals a network, auth or server-side failure of the embedding provider.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrProviderQuotaExceeded signals a rate-limit response from the embedding provider.
	ErrProviderQuotaExceeded = errors.New("embedding provider quota exceeded")
	// ErrModelLoad signals that the local model artifact could not be materialized.
	ErrModelLoad = errors.New("embedding model load failed")

	// ErrIndexUnavailable signals a vector store connection or command failure.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrMalformedIndexRecord signals a search hit missing required fields.
	ErrMalformedIndexRecord = errors.New("malformed index record")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrTimeout signals that an embedding or index call exceeded its deadline. Retryable.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidRequest signals a malformed search request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidDocument signals an article that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidMapping signals an unusable index schema/mapping file.
	ErrInvalidMapping = errors.New("invalid index mapping")
)
