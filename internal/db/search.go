package db

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/scifinder/internal/domain/search/filter"
)

// DefaultVectorField is the hash field holding the FLOAT32 blob.
const DefaultVectorField = "vector"

// KNNQuery is the input for hybrid vector + pre-filter search.
// Filter field names are store field names; range bounds are ISO dates
// matched against a NUMERIC field of Unix seconds.
type KNNQuery struct {
	IndexName    string
	VectorField  string // default DefaultVectorField
	Filters      filter.Expression
	Vector       []float32
	K            int
	VectorAlgo   VectorAlgorithm // algorithm of the index; default VectorHNSW
	EFRuntime    int             // HNSW candidate list size; 0 leaves the index default, ignored for FLAT
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit, in store order.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector encodes a vector as the little-endian FLOAT32 blob stored in the hash.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
