// Package health probes the service dependencies for readiness checks.
package health

import (
	"context"
	"fmt"

	"github.com/openpoi/poidex/internal/domain"
)

// Pinger is the store liveness capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service checks the store and, when configured, the embedding provider.
type Service struct {
	db    Pinger
	embed domain.HealthChecker
}

// New creates a health checker. embed may be nil when provider probing
// is not wanted (it costs an API call).
func New(db Pinger, embed domain.HealthChecker) *Service {
	return &Service{db: db, embed: embed}
}

// Check returns the first dependency failure, nil when all pass.
func (s *Service) Check(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if s.embed != nil {
		if err := s.embed.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding provider: %w", err)
		}
	}
	return nil
}
