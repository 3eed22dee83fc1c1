// Package search implements the hybrid query engine: semantic candidate
// retrieval combined with exact metadata filters and an acceptance
// threshold.
package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/domain/filter"
)

// Service answers natural-language queries over the record store.
type Service struct {
	repo          Repository
	embed         domain.Embedder
	topK          int
	minSimilarity float64
	logger        *zap.Logger
}

// New creates a query engine with the default candidate window and
// acceptance threshold.
func New(repo Repository, embed domain.Embedder) *Service {
	return &Service{
		repo:          repo,
		embed:         embed,
		topK:          domain.DefaultTopK,
		minSimilarity: domain.DefaultMinSimilarity,
		logger:        zap.NewNop(),
	}
}

// WithTopK sets the candidate over-fetch window. The engine never
// auto-expands the window when filters prune below it; under-fetch is an
// accepted trade of recall for latency.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// WithMinSimilarity sets the acceptance threshold.
func (s *Service) WithMinSimilarity(threshold float64) *Service {
	s.minSimilarity = threshold
	return s
}

// WithLogger sets the service logger.
func (s *Service) WithLogger(logger *zap.Logger) *Service {
	s.logger = logger
	return s
}

// Search embeds the question, fetches the top-k nearest candidates with
// the structured constraints pushed down into the store predicate, then
// applies the acceptance threshold and re-checks every constraint
// post-hoc before mapping survivors to presentation names. Results are
// sorted by similarity descending; equal scores keep store order. An
// empty result is not an error.
func (s *Service) Search(ctx context.Context, q *domain.Query) ([]domain.Match, error) {
	candidates, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Match, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if !s.accepts(q, c) {
			continue
		}
		matches = append(matches, domain.Match{
			DisplayName: c.Record().PresentationName(),
			Similarity:  c.Similarity(),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	s.logger.Debug("search completed",
		zap.String("question", q.Question()),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}

func (s *Service) candidates(ctx context.Context, q *domain.Query) ([]domain.Candidate, error) {
	emb, err := s.embed.Embed(ctx, q.Question())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	filters, err := filter.FromQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build filters: %w", err)
	}

	candidates, err := s.repo.SearchKNN(ctx, emb.Embedding, filters, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return candidates, nil
}

// accepts applies the threshold and re-checks the structured constraints.
// The pushdown already narrowed the window; the re-check keeps the result
// contract exact regardless of backend behavior.
func (s *Service) accepts(q *domain.Query, c *domain.Candidate) bool {
	if c.Similarity() < s.minSimilarity {
		return false
	}
	rec := c.Record()
	if !q.AllowsCity(rec.City()) {
		return false
	}
	if !q.AllowsCategory(rec.Category()) {
		return false
	}
	if !q.AllowsDate(rec.CreatedAt()) {
		return false
	}
	return true
}
