// Package rename implements the identity-preserving rename workflow: a
// record's shown name changes without touching its id, document or
// embedding.
package rename

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/domain/filter"
)

// Repository is the record store capability consumed by the workflow.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, filters filter.Expression, k int) ([]domain.Candidate, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// Service locates the authoritative record for a display name and applies
// a presentation-only rename.
type Service struct {
	repo          Repository
	embed         domain.Embedder
	topK          int
	minSimilarity float64
	logger        *zap.Logger
}

// New creates a rename workflow with the default candidate window and
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

// WithTopK sets the candidate over-fetch window.
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

// Rename runs a similarity search scoped by the query, selects the
// highest-similarity candidate whose presentation name equals currentName
// exactly and clears the threshold, and patches its display-name
// override. It returns the updated record's id, or found=false when no
// candidate qualifies — a negative result, not an error. The store is
// left unmodified on a negative result. Repeated renames simply replace
// the override; the record's canonical name stays recoverable.
func (s *Service) Rename(
	ctx context.Context, q *domain.Query, currentName, newDisplayName string,
) (string, bool, error) {
	if currentName == "" {
		return "", false, fmt.Errorf("current name is required")
	}
	if newDisplayName == "" {
		return "", false, fmt.Errorf("new display name is required")
	}

	emb, err := s.embed.Embed(ctx, q.Question())
	if err != nil {
		return "", false, fmt.Errorf("vectorize lookup: %w", err)
	}

	filters, err := filter.FromQuery(q)
	if err != nil {
		return "", false, fmt.Errorf("build filters: %w", err)
	}

	candidates, err := s.repo.SearchKNN(ctx, emb.Embedding, filters, s.topK)
	if err != nil {
		return "", false, fmt.Errorf("search knn: %w", err)
	}

	// Duplicates may share a display name; the highest similarity to the
	// lookup text decides which physical record the name refers to.
	bestID := ""
	bestSimilarity := -1.0
	for i := range candidates {
		c := &candidates[i]
		sim := c.Similarity()
		if sim < s.minSimilarity {
			continue
		}
		rec := c.Record()
		if !q.AllowsCity(rec.City()) || !q.AllowsCategory(rec.Category()) || !q.AllowsDate(rec.CreatedAt()) {
			continue
		}
		if rec.PresentationName() != currentName {
			continue
		}
		if sim > bestSimilarity {
			bestSimilarity = sim
			bestID = rec.ID()
		}
	}

	if bestID == "" {
		s.logger.Info("no record matches rename target",
			zap.String("current_name", currentName),
			zap.Int("candidates", len(candidates)),
		)
		return "", false, nil
	}

	if err := s.repo.UpdateDisplayName(ctx, bestID, newDisplayName); err != nil {
		return "", false, fmt.Errorf("update display name: %w", err)
	}

	s.logger.Info("record renamed",
		zap.String("id", bestID),
		zap.String("current_name", currentName),
		zap.String("new_display_name", newDisplayName),
		zap.Float64("similarity", bestSimilarity),
	)

	return bestID, true, nil
}
