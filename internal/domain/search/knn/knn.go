// Package knn holds the nearest-neighbour query passed from the search use case to the index gateway.
package knn

import "github.com/kailas-cloud/scifinder/internal/domain/search/filter"

// NumCandidates is the canonical candidate pool size for approximate search.
const NumCandidates = 100

// Query is an approximate KNN search restricted to documents matching every filter.
// K never exceeds NumCandidates.
type Query struct {
	Vector        []float32
	K             int
	NumCandidates int
	Filters       filter.Expression // domain field names
}
