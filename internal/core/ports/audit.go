package ports

import (
	"context"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

// AuditRepository persists the authentication audit trail.
type AuditRepository interface {
	Record(ctx context.Context, event *domain.AuthEvent) error
	// Recent returns the newest events, limited to limit entries.
	Recent(ctx context.Context, limit int64) ([]domain.AuthEvent, error)
}
