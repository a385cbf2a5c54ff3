package article

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/scifinder/internal/db"
	"github.com/kailas-cloud/scifinder/internal/domain"
)

// Mapping is the declared index schema. JSON is accepted as well, being a YAML subset.
type Mapping struct {
	Vector VectorMapping  `yaml:"vector"`
	Fields []FieldMapping `yaml:"fields"`
}

// VectorMapping configures the vector field. Its dimension comes from the active provider.
type VectorMapping struct {
	Algorithm      string `yaml:"algorithm"` // hnsw, flat
	Distance       string `yaml:"distance"`  // cosine, l2, ip
	M              int    `yaml:"m"`
	EFConstruction int    `yaml:"ef_construction"`
}

// FieldMapping declares one scalar index field.
type FieldMapping struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"` // text, tag, numeric
	Separator string `yaml:"separator"`
}

// required filterable fields and their types
var requiredFields = map[string]string{
	fieldAuthor:      "tag",
	fieldTags:        "tag",
	fieldPublishedTS: "numeric",
}

// LoadMapping reads and validates a mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w: %w", path, domain.ErrInvalidMapping, err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes and validates mapping bytes.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w: %w", domain.ErrInvalidMapping, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks field types and that every filterable field is declared.
func (m *Mapping) Validate() error {
	declared := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		t := strings.ToLower(f.Type)
		switch t {
		case "text", "tag", "numeric":
		default:
			return fmt.Errorf("%w: field %q has unsupported type %q", domain.ErrInvalidMapping, f.Name, f.Type)
		}
		if f.Name == fieldVector {
			return fmt.Errorf("%w: %q is reserved for the vector field", domain.ErrInvalidMapping, f.Name)
		}
		declared[f.Name] = t
	}
	for name, want := range requiredFields {
		if got, ok := declared[name]; !ok || got != want {
			return fmt.Errorf("%w: field %q must be declared as %s", domain.ErrInvalidMapping, name, want)
		}
	}

	switch strings.ToLower(m.Vector.Algorithm) {
	case "", "hnsw", "flat":
	default:
		return fmt.Errorf("%w: unsupported vector algorithm %q", domain.ErrInvalidMapping, m.Vector.Algorithm)
	}
	if _, err := distance(m.Vector.Distance); err != nil {
		return err
	}
	return nil
}

// algorithm is the vector algorithm the index is built with; HNSW unless "flat".
func (m *Mapping) algorithm() db.VectorAlgorithm {
	if strings.EqualFold(m.Vector.Algorithm, "flat") {
		return db.VectorFlat
	}
	return db.VectorHNSW
}

// BuildIndex turns the mapping into an FT index definition for the given identity.
func (m *Mapping) BuildIndex(name, prefix string, dim int) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).Prefix(prefix)
	for _, f := range m.Fields {
		switch strings.ToLower(f.Type) {
		case "text":
			b.Text(f.Name)
		case "tag":
			b.Tag(f.Name, f.Separator)
		case "numeric":
			b.Numeric(f.Name)
		}
	}

	dist, err := distance(m.Vector.Distance)
	if err != nil {
		return nil, err
	}
	if m.algorithm() == db.VectorFlat {
		b.VectorFlat(fieldVector, dim, dist)
	} else {
		b.VectorHNSW(fieldVector, dim, dist, m.Vector.M, m.Vector.EFConstruction)
	}

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidMapping, err)
	}
	return def, nil
}

func distance(s string) (db.DistanceMetric, error) {
	switch strings.ToLower(s) {
	case "", "cosine":
		return db.DistanceCosine, nil
	case "l2":
		return db.DistanceL2, nil
	case "ip":
		return db.DistanceIP, nil
	default:
		return "", fmt.Errorf("%w: unsupported distance %q", domain.ErrInvalidMapping, s)
	}
}
