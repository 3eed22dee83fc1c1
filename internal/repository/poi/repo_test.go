package poi

import (
	"context"
	"errors"
	"testing"

	"github.com/openpoi/poidex/internal/db"
	"github.com/openpoi/poidex/internal/domain/filter"
)

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Fatal("CreateIndex should not be called")
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
}

func TestEnsureIndex_Creates(t *testing.T) {
	repo, ms := newTestRepo(t)
	var created *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if created == nil {
		t.Fatal("CreateIndex not called")
	}
	if created.Name != indexName {
		t.Errorf("index name = %q, want %q", created.Name, indexName)
	}

	byName := make(map[string]db.IndexField, len(created.Fields))
	for _, f := range created.Fields {
		byName[f.Name] = f
	}
	if byName[filter.FieldCity].Type != db.FieldTag {
		t.Error("city must be a tag field")
	}
	if byName[filter.FieldCreatedAt].Type != db.FieldNumeric {
		t.Error("created_at must be a numeric field")
	}
	vf, ok := byName[fieldVector]
	if !ok || vf.Type != db.FieldVector {
		t.Fatal("vector field missing")
	}
	if vf.VectorDim != 4 {
		t.Errorf("vector dim = %d, want 4", vf.VectorDim)
	}
}

func TestEnsureIndex_RaceTolerated(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("concurrent create must be tolerated: %v", err)
	}
}

func TestUpsert(t *testing.T) {
	repo, ms := newTestRepo(t)
	var gotKey string
	var gotFields map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		gotKey = key
		gotFields = fields
		return nil
	}

	rec := testRecord(t)
	if err := repo.Upsert(context.Background(), &rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if gotKey != keyPrefix+"poi-1" {
		t.Errorf("key = %q", gotKey)
	}
	if gotFields[fieldName] != "Tea House" {
		t.Errorf("name field = %q", gotFields[fieldName])
	}
	if gotFields[filter.FieldCreatedAt] != "1651334400" {
		t.Errorf("created_at field = %q", gotFields[filter.FieldCreatedAt])
	}
	if len(gotFields[fieldVector]) != 16 {
		t.Errorf("vector blob len = %d, want 16", len(gotFields[fieldVector]))
	}
	// No override on a fresh record, the field stays absent.
	if _, ok := gotFields[fieldDisplayName]; ok {
		t.Error("display_name must not be written for an un-renamed record")
	}
}

func TestUpsert_RejectsEmptyVector(t *testing.T) {
	repo, _ := newTestRepo(t)
	base := testRecord(t)
	rec := base.WithVector(nil)
	if err := repo.Upsert(context.Background(), &rec); err == nil {
		t.Fatal("expected error for record without vector")
	}
}

func TestSearchKNN(t *testing.T) {
	repo, ms := newTestRepo(t)
	var gotQuery *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		gotQuery = q
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:      keyPrefix + "poi-9",
				Distance: 0.12,
				Fields: map[string]string{
					fieldName:             "Noodle Shop",
					fieldDisplayName:      "Hand-Pulled Noodles",
					filter.FieldCategory:  "noodle",
					filter.FieldCity:      "Chiayi",
					filter.FieldCreatedAt: "1651334400",
				},
			}},
		}, nil
	}

	cands, err := repo.SearchKNN(context.Background(), []float32{1, 0, 0, 0}, filter.Expression{}, 10)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}

	if gotQuery.IndexName != indexName || gotQuery.K != 10 {
		t.Errorf("query = %+v", gotQuery)
	}
	for _, f := range gotQuery.ReturnFields {
		if f == fieldVector {
			t.Error("vector blob must not be hydrated on search")
		}
	}

	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	rec := cands[0].Record()
	if rec.ID() != "poi-9" {
		t.Errorf("id = %q, want poi-9 (prefix trimmed)", rec.ID())
	}
	if rec.PresentationName() != "Hand-Pulled Noodles" {
		t.Errorf("presentation name = %q", rec.PresentationName())
	}
	if cands[0].Distance() != 0.12 {
		t.Errorf("distance = %g", cands[0].Distance())
	}
}

func TestSearchKNN_EmptyResult(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{}, nil
	}

	cands, err := repo.SearchKNN(context.Background(), []float32{1}, filter.Expression{}, 10)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %d", len(cands))
	}
}

func TestUpdateDisplayName(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	var gotFields map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != keyPrefix+"poi-1" {
			t.Errorf("key = %q", key)
		}
		gotFields = fields
		return nil
	}

	if err := repo.UpdateDisplayName(context.Background(), "poi-1", "New Name"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}

	// Single-field patch, nothing else is touched.
	if len(gotFields) != 1 || gotFields[fieldDisplayName] != "New Name" {
		t.Errorf("patched fields = %v", gotFields)
	}
}

func TestUpdateDisplayName_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		t.Fatal("HSet should not be called for a missing record")
		return nil
	}

	err := repo.UpdateDisplayName(context.Background(), "nope", "x")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, index string) (int, error) {
		if index != indexName {
			t.Errorf("index = %q", index)
		}
		return 42, nil
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	rec := testRecord(t)
	stored := fieldsFromRecord(&rec)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != keyPrefix+"poi-1" {
			t.Errorf("key = %q", key)
		}
		return stored, nil
	}

	got, err := repo.Get(context.Background(), "poi-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != rec.Name() || got.City() != rec.City() || got.CreatedAt() != rec.CreatedAt() {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if len(got.Vector()) != len(rec.Vector()) {
		t.Errorf("vector len = %d, want %d", len(got.Vector()), len(rec.Vector()))
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}
