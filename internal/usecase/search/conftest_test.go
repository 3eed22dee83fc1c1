package search

import (
	"context"
	"testing"

	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/domain/filter"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	candidates  []domain.Candidate
	err         error
	called      bool
	lastFilters filter.Expression
	lastK       int
}

func (m *mockRepo) SearchKNN(
	_ context.Context, _ []float32, filters filter.Expression, k int,
) ([]domain.Candidate, error) {
	m.called = true
	m.lastFilters = filters
	m.lastK = k
	return m.candidates, m.err
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func candidate(t *testing.T, id, name, city, category string, createdAt int64, distance float64) domain.Candidate {
	t.Helper()
	rec := domain.ReconstructRecord(id, name, "", category, city, "", "", "", createdAt, "", nil)
	return domain.NewCandidate(rec, distance)
}

func renamedCandidate(t *testing.T, id, name, displayName string, distance float64) domain.Candidate {
	t.Helper()
	rec := domain.ReconstructRecord(id, name, displayName, "", "", "", "", "", 1, "", nil)
	return domain.NewCandidate(rec, distance)
}

func makeQuery(t *testing.T, question string, cities, categories []string, since, until *int64) *domain.Query {
	t.Helper()
	q, err := domain.NewQuery(question, cities, categories, since, until)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return &q
}

func int64Ptr(v int64) *int64 { return &v }
