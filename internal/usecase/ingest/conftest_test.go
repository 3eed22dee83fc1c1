package ingest

import (
	"context"
	"sync/atomic"

	"github.com/openpoi/poidex/internal/domain"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	count     int
	countErr  error
	upsertErr error

	stored []domain.Record
}

func (m *mockRepo) Upsert(_ context.Context, rec *domain.Record) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.stored = append(m.stored, *rec)
	return nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls atomic.Int64
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func validRow(id, name string) SourceRow {
	return SourceRow{
		ID:         id,
		Name:       name,
		Type:       "teashop",
		Address:    "No. 1, Mountain Rd",
		Tel:        "049-1234567",
		City:       "Nantou",
		Town:       "Lugu",
		CreateDate: "2022-05-01",
		HostWords:  "high mountain oolong tastings",
	}
}
