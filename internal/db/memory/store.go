// Package memory provides an in-process db.Store with true cosine-distance
// KNN and structural filter evaluation. It backs unit tests and the
// `driver: memory` configuration for local runs without Redis.
package memory

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openpoi/poidex/internal/db"
	"github.com/openpoi/poidex/internal/domain/filter"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const vectorField = "__vector"

// Store is a mutex-guarded in-memory database.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	order   []string // hash keys in first-insert order, the rank order for ties
	kv      map[string][]byte
	indexes map[string]*db.IndexDefinition
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		kv:      make(map[string][]byte),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady always succeeds.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// HSet merges fields into a hash, creating it if absent.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
		s.order = append(s.order, key)
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HGetAll returns a copy of all fields of a hash; empty map when absent.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hashes[key]; ok {
		delete(s.hashes, key)
		for i, k := range s.order {
			if k == key {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	delete(s.kv, key)
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	_, ok := s.kv[key]
	return ok, nil
}

// Get returns the value of a KV key, or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a KV value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.kv[key] = v
	return nil
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = def
	return nil
}

// IndexExists reports whether an index was registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.indexes[name]
	return ok, nil
}

// SearchKNN ranks the index's hashes by cosine distance to the query
// vector, applying the filter expression before ranking. Ties keep
// insertion order (stable sort), matching the rank-order contract of
// db.Searcher.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}

	type hit struct {
		key      string
		distance float64
		fields   map[string]string
	}

	var hits []hit
	for _, key := range s.order {
		if !hasPrefix(key, def.Prefixes) {
			continue
		}
		h := s.hashes[key]
		if !matchesFilter(h, q.Filters) {
			continue
		}
		vec := bytesToVector(h[vectorField])
		if vec == nil {
			continue
		}
		hits = append(hits, hit{key: key, distance: cosineDistance(q.Vector, vec), fields: h})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > q.K {
		hits = hits[:q.K]
	}

	entries := make([]db.SearchEntry, 0, len(hits))
	for _, h := range hits {
		entries = append(entries, db.SearchEntry{
			Key:      h.key,
			Distance: h.distance,
			Fields:   selectFields(h.fields, q.ReturnFields),
		})
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchCount counts the hashes covered by an index.
func (s *Store) SearchCount(_ context.Context, index string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[index]
	if !ok {
		return 0, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}

	n := 0
	for key := range s.hashes {
		if hasPrefix(key, def.Prefixes) {
			n++
		}
	}
	return n, nil
}

func hasPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return len(prefixes) == 0
}

// matchesFilter evaluates the expression structurally against hash fields.
func matchesFilter(fields map[string]string, expr filter.Expression) bool {
	for _, m := range expr.Matches() {
		if !m.Allows(fields[m.Key()]) {
			return false
		}
	}
	for _, r := range expr.Ranges() {
		v, err := strconv.ParseFloat(fields[r.Key()], 64)
		if err != nil || !r.Contains(v) {
			return false
		}
	}
	return true
}

func selectFields(fields map[string]string, names []string) map[string]string {
	if len(names) == 0 {
		out := make(map[string]string, len(fields))
		for k, v := range fields {
			out[k] = v
		}
		return out
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := fields[name]; ok {
			out[name] = v
		}
	}
	return out
}

// cosineDistance is 1 − cos(a, b); degenerate vectors are maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
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
