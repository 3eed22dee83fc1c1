// Package ingest loads source rows into the record store: parse, embed,
// upsert. A load against an already-populated store is a no-op.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openpoi/poidex/internal/domain"
)

// createDateLayout is the source date format.
const createDateLayout = "2006-01-02"

// SourceRow is one raw row from the source dataset.
type SourceRow struct {
	ID         string
	Name       string
	Type       string
	Address    string
	Tel        string
	City       string
	Town       string
	CreateDate string
	HostWords  string
}

// Repository is the record store capability consumed by the pipeline.
type Repository interface {
	Upsert(ctx context.Context, rec *domain.Record) error
	Count(ctx context.Context) (int, error)
}

// Result summarizes one ingestion run.
type Result struct {
	// Total is the number of records in the store after the run.
	Total int
	// Ingested is the number of rows written by this run.
	Ingested int
	// Skipped is the number of malformed rows dropped by this run.
	Skipped int
	// AlreadyLoaded reports that the store was populated before the run
	// and no rows were written.
	AlreadyLoaded bool
}

// Service loads source rows into the record store.
type Service struct {
	repo   Repository
	embed  domain.Embedder
	logger *zap.Logger
}

// New creates an ingestion pipeline.
func New(repo Repository, embed domain.Embedder) *Service {
	return &Service{repo: repo, embed: embed, logger: zap.NewNop()}
}

// WithLogger sets the service logger.
func (s *Service) WithLogger(logger *zap.Logger) *Service {
	s.logger = logger
	return s
}

// Ingest loads rows into the store. When the store already holds records
// the run is skipped and the existing count reported; re-running the
// loader never duplicates data. Malformed rows are dropped with a logged
// diagnostic and do not abort the run. Embedding or storage failures
// abort immediately, returning the progress made so far alongside the
// error.
func (s *Service) Ingest(ctx context.Context, rows []SourceRow) (Result, error) {
	existing, err := s.repo.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count records: %w", err)
	}
	if existing > 0 {
		s.logger.Info("store already populated, skipping load",
			zap.Int("existing", existing),
		)
		return Result{Total: existing, AlreadyLoaded: true}, nil
	}

	res := Result{}
	for i := range rows {
		row := &rows[i]

		rec, err := recordFromRow(row)
		if err != nil {
			res.Skipped++
			s.logger.Warn("dropping malformed row",
				zap.String("id", row.ID),
				zap.Error(err),
			)
			continue
		}

		emb, err := s.embed.Embed(ctx, rec.Document())
		if err != nil {
			return res, fmt.Errorf("embed record %s: %w", rec.ID(), err)
		}
		stored := rec.WithVector(emb.Embedding)

		if err := s.repo.Upsert(ctx, &stored); err != nil {
			return res, fmt.Errorf("store record %s: %w", rec.ID(), err)
		}
		res.Ingested++
		res.Total++
	}

	s.logger.Info("load completed",
		zap.Int("ingested", res.Ingested),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// recordFromRow validates a source row into a domain record. The
// creation date is normalized to epoch seconds so range filters compare
// numerically.
func recordFromRow(row *SourceRow) (domain.Record, error) {
	if row.ID == "" {
		return domain.Record{}, domain.NewParseError("", row.Name, fmt.Errorf("missing row id"))
	}

	t, err := time.Parse(createDateLayout, row.CreateDate)
	if err != nil {
		return domain.Record{}, domain.NewParseError(row.ID, row.CreateDate, err)
	}

	rec, err := domain.NewRecord(row.ID, domain.RecordFields{
		Name:      row.Name,
		Category:  row.Type,
		City:      row.City,
		Town:      row.Town,
		Address:   row.Address,
		Tel:       row.Tel,
		CreatedAt: t.Unix(),
		Document:  row.HostWords,
	})
	if err != nil {
		return domain.Record{}, domain.NewParseError(row.ID, row.Name, err)
	}
	return rec, nil
}
