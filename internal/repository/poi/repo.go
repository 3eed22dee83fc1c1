// Package poi persists POI records as flat hashes with a FLOAT32 vector
// blob, indexed for filtered KNN search.
package poi

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/openpoi/poidex/internal/db"
	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/domain/filter"
)

const (
	keyPrefix = "poidex:poi:"
	indexName = keyPrefix + "idx"

	fieldName        = "name"
	fieldDisplayName = "display_name"
	fieldAddress     = "address"
	fieldTel         = "tel"
	fieldTown        = "town"
	fieldContent     = "__content"
	fieldVector      = "__vector"
)

// returnFields are the stored fields hydrated on search; the vector blob
// stays in the store.
var returnFields = []string{
	fieldName, fieldDisplayName, filter.FieldCategory, filter.FieldCity,
	fieldTown, fieldAddress, fieldTel, filter.FieldCreatedAt, fieldContent,
}

// store is the consumer interface for record persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the record store consumed by the ingest, search and
// rename services.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates a record repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW sets HNSW build parameters for EnsureIndex.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the record index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldName, Type: db.FieldTag},
			{Name: fieldDisplayName, Type: db.FieldTag},
			{Name: filter.FieldCategory, Type: db.FieldTag},
			{Name: filter.FieldCity, Type: db.FieldTag},
			{Name: fieldTown, Type: db.FieldTag},
			{Name: filter.FieldCreatedAt, Type: db.FieldNumeric},
			{Name: fieldContent, Type: db.FieldText},
			{
				Name: fieldVector, Type: db.FieldVector,
				VectorDim:         r.dim,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert stores a record under its stable key.
func (r *Repo) Upsert(ctx context.Context, rec *domain.Record) error {
	if len(rec.Vector()) == 0 {
		return fmt.Errorf("record %q has no vector", rec.ID())
	}
	if err := r.store.HSet(ctx, recordKey(rec.ID()), fieldsFromRecord(rec)); err != nil {
		return fmt.Errorf("hset %s: %w", rec.ID(), err)
	}
	return nil
}

// Count returns the number of indexed records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// SearchKNN returns up to k candidates ranked by distance, with the
// filter expression pushed down into the index query.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, k int,
) ([]domain.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		Filters:      filters,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		candidates = append(candidates, domain.NewCandidate(recordFromFields(id, entry.Fields), entry.Distance))
	}
	return candidates, nil
}

// UpdateDisplayName patches the presentation override in place. The
// record's key, vector and remaining metadata are untouched.
func (r *Repo) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	key := recordKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("record %s: %w", id, db.ErrKeyNotFound)
	}

	if err := r.store.HSet(ctx, key, map[string]string{fieldDisplayName: displayName}); err != nil {
		return fmt.Errorf("patch display name %s: %w", id, err)
	}
	return nil
}

// Get hydrates one record by ID, including its vector.
func (r *Repo) Get(ctx context.Context, id string) (domain.Record, error) {
	fields, err := r.store.HGetAll(ctx, recordKey(id))
	if err != nil {
		return domain.Record{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domain.Record{}, fmt.Errorf("record %s: %w", id, db.ErrKeyNotFound)
	}
	return recordFromFields(id, fields), nil
}

func recordKey(id string) string {
	return keyPrefix + id
}

func fieldsFromRecord(rec *domain.Record) map[string]string {
	fields := map[string]string{
		fieldName:             rec.Name(),
		filter.FieldCategory:  rec.Category(),
		filter.FieldCity:      rec.City(),
		fieldTown:             rec.Town(),
		fieldAddress:          rec.Address(),
		fieldTel:              rec.Tel(),
		filter.FieldCreatedAt: strconv.FormatInt(rec.CreatedAt(), 10),
		fieldContent:          rec.Document(),
		fieldVector:           vectorToBytes(rec.Vector()),
	}
	if rec.DisplayName() != "" {
		fields[fieldDisplayName] = rec.DisplayName()
	}
	return fields
}

func recordFromFields(id string, fields map[string]string) domain.Record {
	createdAt, _ := strconv.ParseInt(fields[filter.FieldCreatedAt], 10, 64)
	return domain.ReconstructRecord(
		id,
		fields[fieldName],
		fields[fieldDisplayName],
		fields[filter.FieldCategory],
		fields[filter.FieldCity],
		fields[fieldTown],
		fields[fieldAddress],
		fields[fieldTel],
		createdAt,
		fields[fieldContent],
		bytesToVector(fields[fieldVector]),
	)
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
