package db

import (
	"strconv"
	"strings"
)

// IndexBuilder assembles an IndexDefinition field by field.
//
//	def, err := db.NewIndex("scifinder:local-tfidf:idx").
//		Prefix("scifinder:local-tfidf:doc:").
//		Text("title").
//		VectorHNSW("vector", 384, db.DistanceCosine, 16, 200).
//		Build()
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a HASH index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, StorageType: StorageHash}}
}

func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldNumeric})
}

// Tag adds a TAG field. Empty separator leaves the engine default (",").
func (b *IndexBuilder) Tag(name, separator string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldTag, TagSeparator: separator})
}

func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldText})
}

// VectorHNSW adds an HNSW vector field. Zero m or efConstruct keeps the engine default.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efConstruct int) *IndexBuilder {
	f := vectorField(name, VectorHNSW, dim, distance)
	f.VectorM, f.VectorEFConstruct = m, efConstruct
	return b.field(f)
}

func (b *IndexBuilder) VectorFlat(name string, dim int, distance DistanceMetric) *IndexBuilder {
	return b.field(vectorField(name, VectorFlat, dim, distance))
}

func vectorField(name string, algo VectorAlgorithm, dim int, distance DistanceMetric) IndexField {
	return IndexField{
		Name:           name,
		Type:           IndexFieldVector,
		VectorAlgo:     algo,
		VectorDim:      dim,
		VectorDistance: distance,
	}
}

func (b *IndexBuilder) field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates the definition and returns a copy of it.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Prefixes = append([]string(nil), b.def.Prefixes...)
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}

// MustBuild is Build for definitions known to be valid; it panics otherwise.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String renders a short FT.CREATE-like summary for logs. Vector attributes
// other than DIM are omitted.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE " + idx.Name + " ON " + string(idx.StorageType))
	if n := len(idx.Prefixes); n > 0 {
		sb.WriteString(" PREFIX " + strconv.Itoa(n) + " " + strings.Join(idx.Prefixes, " "))
	}
	sb.WriteString(" SCHEMA")
	for _, f := range idx.Fields {
		sb.WriteString(" " + f.Name + " " + string(f.Type))
		if f.Type == IndexFieldVector {
			sb.WriteString(" " + string(f.VectorAlgo) + " DIM " + strconv.Itoa(f.VectorDim))
		}
	}
	return sb.String()
}
