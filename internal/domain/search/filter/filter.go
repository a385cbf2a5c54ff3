package filter

import "fmt"

// MaxConditions is the maximum number of clauses in one expression.
const MaxConditions = 32

// Kind distinguishes filter clause shapes.
type Kind int

const (
	// KindWildcard is a case-insensitive glob match (`*value*`).
	KindWildcard Kind = iota
	// KindTerm is an exact term match against a closed vocabulary.
	KindTerm
	// KindRange is an inclusive range over ISO dates.
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindWildcard:
		return "wildcard"
	case KindTerm:
		return "term"
	case KindRange:
		return "range"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Expression is a conjunction of clauses. Only AND is supported.
type Expression struct {
	all []Condition
}

// NewExpression validates and creates a filter Expression. Clause order is preserved.
func NewExpression(all ...Condition) (Expression, error) {
	if len(all) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{all: all}, nil
}

// All returns the clauses in emission order.
func (e Expression) All() []Condition { return e.all }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.all) == 0 }

// Condition is a single filter clause on one field.
type Condition struct {
	kind  Kind
	field string
	value string
	rng   *Range
}

// NewWildcard creates a glob clause. The pattern is used as-is.
func NewWildcard(field, pattern string) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	if pattern == "" {
		return Condition{}, fmt.Errorf("wildcard pattern is required for field %q", field)
	}
	return Condition{kind: KindWildcard, field: field, value: pattern}, nil
}

// NewTerm creates an exact-match clause.
func NewTerm(field, value string) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("term value is required for field %q", field)
	}
	return Condition{kind: KindTerm, field: field, value: value}, nil
}

// NewRange creates an inclusive range clause.
func NewRange(field string, r Range) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	return Condition{kind: KindRange, field: field, rng: &r}, nil
}

// Kind returns the clause shape.
func (c Condition) Kind() Kind { return c.kind }

// Field returns the field name.
func (c Condition) Field() string { return c.field }

// Value returns the wildcard pattern or term value.
func (c Condition) Value() string { return c.value }

// Range returns the range bounds (nil unless Kind is KindRange).
func (c Condition) Range() *Range { return c.rng }

// Range is an inclusive range. Either bound may be absent, giving a half-open range.
type Range struct {
	gte *string
	lte *string
}

// NewDateRange validates and creates a Range. At least one bound is required.
func NewDateRange(gte, lte *string) (Range, error) {
	if gte == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	return Range{gte: gte, lte: lte}, nil
}

// GTE returns the lower inclusive bound.
func (r Range) GTE() *string { return r.gte }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *string { return r.lte }
