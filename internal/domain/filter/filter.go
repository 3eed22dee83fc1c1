package filter

import (
	"fmt"

	"github.com/openpoi/poidex/internal/domain"
)

// Expression is a conjunction of tag matches and numeric ranges, pushed
// down into the store's search predicate. Backends compile it to their
// native pre-filter syntax or evaluate it structurally.
type Expression struct {
	matches []Match
	ranges  []Range
}

// NewExpression creates a filter Expression.
func NewExpression(matches []Match, ranges []Range) Expression {
	return Expression{matches: matches, ranges: ranges}
}

// Matches returns the tag match conditions.
func (e Expression) Matches() []Match { return e.matches }

// Ranges returns the numeric range conditions.
func (e Expression) Ranges() []Range { return e.ranges }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.matches) == 0 && len(e.ranges) == 0
}

// Match accepts records whose tag field equals any of the given values.
type Match struct {
	key    string
	values []string
}

// NewMatch creates a tag value-set match condition.
func NewMatch(key string, values []string) (Match, error) {
	if key == "" {
		return Match{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Match{}, fmt.Errorf("at least one match value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Match{}, fmt.Errorf("empty match value for key %q", key)
		}
	}
	return Match{key: key, values: values}, nil
}

// Key returns the field name.
func (m Match) Key() string { return m.key }

// Values returns the accepted values.
func (m Match) Values() []string { return m.values }

// Allows reports whether a field value satisfies the condition.
func (m Match) Allows(value string) bool {
	for _, v := range m.values {
		if v == value {
			return true
		}
	}
	return false
}

// Range accepts records whose numeric field lies in [min, max] inclusive.
// A nil bound leaves that side open.
type Range struct {
	key string
	min *float64
	max *float64
}

// NewRange creates an inclusive numeric range condition.
func NewRange(key string, min, max *float64) (Range, error) {
	if key == "" {
		return Range{}, fmt.Errorf("filter key is required")
	}
	if min == nil && max == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required for key %q", key)
	}
	if min != nil && max != nil && *min > *max {
		return Range{}, fmt.Errorf("range for key %q: min %g is above max %g", key, *min, *max)
	}
	return Range{key: key, min: min, max: max}, nil
}

// Key returns the field name.
func (r Range) Key() string { return r.key }

// Min returns the inclusive lower bound, nil meaning open.
func (r Range) Min() *float64 { return r.min }

// Max returns the inclusive upper bound, nil meaning open.
func (r Range) Max() *float64 { return r.max }

// Contains reports whether a value lies inside the range.
func (r Range) Contains(v float64) bool {
	if r.min != nil && v < *r.min {
		return false
	}
	if r.max != nil && v > *r.max {
		return false
	}
	return true
}

// Field names shared by every backend and the repository schema.
const (
	FieldCity      = "city"
	FieldCategory  = "type"
	FieldCreatedAt = "created_at"
)

// FromQuery compiles a query's structured constraints into a pushdown
// expression over the store's metadata fields.
func FromQuery(q *domain.Query) (Expression, error) {
	var matches []Match
	var ranges []Range

	if cities := q.Cities(); len(cities) > 0 {
		m, err := NewMatch(FieldCity, cities)
		if err != nil {
			return Expression{}, fmt.Errorf("city filter: %w", err)
		}
		matches = append(matches, m)
	}
	if cats := q.Categories(); len(cats) > 0 {
		m, err := NewMatch(FieldCategory, cats)
		if err != nil {
			return Expression{}, fmt.Errorf("category filter: %w", err)
		}
		matches = append(matches, m)
	}
	if q.Since() != nil || q.Until() != nil {
		var min, max *float64
		if s := q.Since(); s != nil {
			v := float64(*s)
			min = &v
		}
		if u := q.Until(); u != nil {
			v := float64(*u)
			max = &v
		}
		r, err := NewRange(FieldCreatedAt, min, max)
		if err != nil {
			return Expression{}, fmt.Errorf("date filter: %w", err)
		}
		ranges = append(ranges, r)
	}

	return NewExpression(matches, ranges), nil
}
