package domain

import "fmt"

// DefaultMinSimilarity is the acceptance cutoff for search candidates.
const DefaultMinSimilarity = 0.80

// DefaultTopK is the candidate over-fetch window for similarity search.
const DefaultTopK = 10

// Query is a natural-language lookup with optional structured constraints.
// Empty city/category sets mean "no restriction"; nil date bounds mean
// an open interval. Both date bounds are inclusive.
type Query struct {
	question   string
	cities     []string
	categories []string
	since      *int64
	until      *int64
}

// NewQuery validates and creates a Query.
func NewQuery(question string, cities, categories []string, since, until *int64) (Query, error) {
	if question == "" {
		return Query{}, fmt.Errorf("question text is required")
	}
	if since != nil && until != nil && *since > *until {
		return Query{}, fmt.Errorf("date range start %d is after end %d", *since, *until)
	}
	return Query{
		question:   question,
		cities:     cities,
		categories: categories,
		since:      since,
		until:      until,
	}, nil
}

// Question returns the natural-language query text.
func (q *Query) Question() string { return q.question }

// Cities returns the accepted city values, empty meaning unrestricted.
func (q *Query) Cities() []string { return q.cities }

// Categories returns the accepted category values, empty meaning unrestricted.
func (q *Query) Categories() []string { return q.categories }

// Since returns the inclusive lower date bound, nil meaning open.
func (q *Query) Since() *int64 { return q.since }

// Until returns the inclusive upper date bound, nil meaning open.
func (q *Query) Until() *int64 { return q.until }

// AllowsCity reports whether a record city passes the city constraint.
func (q *Query) AllowsCity(city string) bool {
	return allows(q.cities, city)
}

// AllowsCategory reports whether a record category passes the category constraint.
func (q *Query) AllowsCategory(category string) bool {
	return allows(q.categories, category)
}

// AllowsDate reports whether an epoch timestamp falls inside the
// inclusive [since, until] interval.
func (q *Query) AllowsDate(ts int64) bool {
	if q.since != nil && ts < *q.since {
		return false
	}
	if q.until != nil && ts > *q.until {
		return false
	}
	return true
}

func allows(accepted []string, value string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, v := range accepted {
		if v == value {
			return true
		}
	}
	return false
}

// Match is a single search result: the presentation name of a record and
// its similarity score.
type Match struct {
	DisplayName string
	Similarity  float64
}

// Candidate is a record returned by a similarity search together with its
// raw distance, prior to threshold and filter application.
type Candidate struct {
	record   Record
	distance float64
}

// NewCandidate creates a Candidate from a hydrated record and its distance.
func NewCandidate(record Record, distance float64) Candidate {
	return Candidate{record: record, distance: distance}
}

// Record returns the candidate record.
func (c *Candidate) Record() *Record { return &c.record }

// Distance returns the raw distance reported by the store.
func (c *Candidate) Distance() float64 { return c.distance }

// Similarity converts cosine distance to a similarity score (1 − distance),
// clamped at 0. Cosine distance spans [0,2] but scores below zero never
// clear an acceptance threshold, so the clamp only tidies diagnostics.
func (c *Candidate) Similarity() float64 {
	return max(0, 1-c.distance)
}
