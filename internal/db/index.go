package db

import (
	"errors"
	"fmt"
	"strings"
)

// StorageType is the document layout an FT index reads from.
type StorageType string

// StorageHash indexes plain Redis hashes.
const StorageHash StorageType = "HASH"

// DistanceMetric of a vector field.
type DistanceMetric string

// Distance metrics accepted by FT.CREATE.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm of a vector field.
type VectorAlgorithm string

const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT" // brute force
)

// IndexFieldType is the schema keyword of a field.
type IndexFieldType string

const (
	IndexFieldNumeric IndexFieldType = "NUMERIC"
	IndexFieldTag     IndexFieldType = "TAG"
	IndexFieldText    IndexFieldType = "TEXT"
	IndexFieldVector  IndexFieldType = "VECTOR"
)

// IndexField is one schema entry. Tag and vector options are ignored for other types.
type IndexField struct {
	Name string
	Type IndexFieldType

	TagSeparator string

	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // HNSW: max edges per node
	VectorEFConstruct int // HNSW: EF_CONSTRUCTION
}

// IndexDefinition describes an FT index over documents sharing a key prefix.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Validate rejects definitions FT.CREATE would refuse, plus more than one vector field:
// KNN queries address a single vector per document.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	case len(idx.Fields) == 0:
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	vectors := 0
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type != IndexFieldVector {
			continue
		}
		if vectors++; vectors > 1 {
			return errors.New("at most one vector field is supported")
		}
		if f.VectorDim <= 0 {
			return fmt.Errorf("vector field %q: DIM must be positive", f.Name)
		}
	}
	return nil
}

// VectorField returns the vector field, if any.
func (idx *IndexDefinition) VectorField() (IndexField, bool) {
	for _, f := range idx.Fields {
		if f.Type == IndexFieldVector {
			return f, true
		}
	}
	return IndexField{}, false
}

// IsValidIdentifier reports whether s is non-empty and made of ASCII letters,
// digits, '_', ':' and '-'. Index names and provider names must pass it.
func IsValidIdentifier(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-':
			return false
		}
		return true
	}) < 0
}
