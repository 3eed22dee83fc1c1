package rename

import (
	"context"
	"testing"

	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/domain/filter"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	candidates []domain.Candidate
	searchErr  error
	updateErr  error

	searchCalled bool
	lastFilters  filter.Expression
	updatedID    string
	updatedName  string
	updateCalls  int
}

func (m *mockRepo) SearchKNN(
	_ context.Context, _ []float32, filters filter.Expression, _ int,
) ([]domain.Candidate, error) {
	m.searchCalled = true
	m.lastFilters = filters
	return m.candidates, m.searchErr
}

func (m *mockRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	m.updateCalls++
	m.updatedID = id
	m.updatedName = displayName
	return m.updateErr
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func candidate(t *testing.T, id, name, displayName string, distance float64) domain.Candidate {
	t.Helper()
	rec := domain.ReconstructRecord(id, name, displayName, "", "", "", "", "", 1, "", nil)
	return domain.NewCandidate(rec, distance)
}

func cityCandidate(t *testing.T, id, name, city string, distance float64) domain.Candidate {
	t.Helper()
	rec := domain.ReconstructRecord(id, name, "", "", city, "", "", "", 1, "", nil)
	return domain.NewCandidate(rec, distance)
}

func makeQuery(t *testing.T, question string, cities []string) *domain.Query {
	t.Helper()
	q, err := domain.NewQuery(question, cities, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return &q
}
