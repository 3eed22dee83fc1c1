package search

import (
	"context"

	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/domain/filter"
)

// Repository is the record store capability consumed by the engine.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, filters filter.Expression, k int) ([]domain.Candidate, error)
}
