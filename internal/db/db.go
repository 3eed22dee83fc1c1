package db

import (
	"context"
	"time"

	"github.com/openpoi/poidex/internal/domain/filter"
)

// Store is the database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store.
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based record storage.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides plain key-value operations (embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// IndexManager provides search index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides similarity search over an index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// FieldType enumerates index field kinds.
type FieldType string

// Index field kinds.
const (
	FieldTag     FieldType = "TAG"
	FieldNumeric FieldType = "NUMERIC"
	FieldText    FieldType = "TEXT"
	FieldVector  FieldType = "VECTOR"
)

// IndexField describes one field of an index schema.
type IndexField struct {
	Name              string
	Type              FieldType
	VectorDim         int
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition describes a search index over hash keys with the
// given prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// KNNQuery is a K-nearest-neighbour search request with an optional
// pushed-down metadata pre-filter.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Filters      filter.Expression
	ReturnFields []string
}

// SearchEntry is one hit: the hash key, the raw distance reported by the
// index, and the requested stored fields.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}

// SearchResult holds the hits of one search, in index rank order.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
