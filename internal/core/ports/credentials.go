package ports

import (
	"context"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

// CredentialStore is the persisted per-session credential mirror: the
// authoritative bearer token plus an informational identity cache. The
// session store is its only writer; the upstream client and the guards hold
// a read-only view.
type CredentialStore interface {
	// Token returns the persisted bearer token, or "" when absent.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error

	// User returns the cached identity mirror, or nil when absent. The
	// mirror is informational only; Token decides IsAuthenticated.
	User(ctx context.Context) (*domain.User, error)
	SetUser(ctx context.Context, user *domain.User) error

	// Clear removes both the token and the identity mirror. Idempotent.
	Clear(ctx context.Context) error
}
