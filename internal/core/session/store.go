// Package session holds the session store: the state machine that reconciles
// persisted credentials with a verified identity and answers every
// authorization question the rest of the gateway asks.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
)

const auditTimeout = 2 * time.Second

// State is a consistent snapshot of one session. While Loading is true the
// caller must render a neutral waiting state instead of making an
// authorization decision.
type State struct {
	User    *domain.User
	Loading bool
}

// Authenticated reports whether the session settled on a verified identity.
func (st State) Authenticated() bool {
	return st.User != nil
}

// Store owns the authentication state of a single principal. No package-level
// state: tests and the session manager run isolated instances.
//
// States: Bootstrapping settles into Authenticated or Anonymous; Login and
// Logout move between the two. Mutations reopen a transient
// loading window without reclassifying the session until they resolve.
type Store struct {
	auth  ports.AuthService
	creds ports.CredentialStore
	audit ports.AuditRepository
	log   zerolog.Logger
	id    string

	mu         sync.Mutex
	user       *domain.User
	booted     bool
	inflight   int
	generation uint64
}

// NewStore builds a Store for one gateway session. audit may be nil when no
// trail is wanted.
func NewStore(id string, auth ports.AuthService, creds ports.CredentialStore, audit ports.AuditRepository, log zerolog.Logger) *Store {
	return &Store{
		auth:  auth,
		creds: creds,
		audit: audit,
		log:   log.With().Str("session_id", id).Logger(),
		id:    id,
	}
}

// begin opens a loading window and claims a new generation. A mutation only
// gets to apply its identity if no later mutation started meanwhile.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.generation++
	return s.generation
}

// settle closes the loading window opened by begin. The identity write is
// skipped when apply is false, or when a later operation superseded this one.
func (s *Store) settle(gen uint64, user *domain.User, apply bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if apply && gen == s.generation {
		s.user = user
	}
}

// Bootstrap reconciles the persisted token with a verified identity. It runs
// at most once per store; later calls return false immediately. Every branch
// terminates the loading window, and errors never escape: the session always
// settles as Authenticated or Anonymous.
func (s *Store) Bootstrap(ctx context.Context) bool {
	s.mu.Lock()
	if s.booted {
		s.mu.Unlock()
		return false
	}
	s.booted = true
	s.inflight++
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	authed, err := s.auth.IsAuthenticated(ctx)
	if err != nil || !authed {
		// No token: Anonymous without a network call.
		s.settle(gen, nil, true)
		return true
	}

	user, err := s.auth.CurrentUser(ctx)
	if err != nil || user == nil {
		// The persisted token failed verification: discard it so the next
		// bootstrap starts clean.
		if err := s.auth.Logout(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to discard invalid credentials")
		}
		s.recordAudit(ctx, domain.AuditBootstrapInvalid, "", reason(err))
		s.settle(gen, nil, true)
		return true
	}

	s.settle(gen, user, true)
	return true
}

// Login authenticates and, on success, verifies the identity with the fresh
// token and mirrors it into the credential store. Failures come back as
// error values; the session stays Anonymous and never panics across this
// boundary.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	gen := s.begin()

	if _, err := s.auth.Login(ctx, email, password); err != nil {
		s.recordAudit(ctx, domain.AuditLoginFailure, email, reason(err))
		s.settle(gen, nil, true)
		return nil, err
	}

	user, err := s.auth.CurrentUser(ctx)
	if err != nil || user == nil {
		// Token accepted but no identity behind it: deny rather than trust.
		if err := s.auth.Logout(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to discard credentials after identity fetch failure")
		}
		s.recordAudit(ctx, domain.AuditLoginFailure, email, "identity fetch failed")
		s.settle(gen, nil, true)
		return nil, domain.ErrLoginFailed
	}

	if err := s.creds.SetUser(ctx, user); err != nil {
		// The mirror is informational only; the token decides authentication.
		s.log.Warn().Err(err).Msg("failed to mirror identity")
	}
	s.recordAudit(ctx, domain.AuditLoginSuccess, email, "")
	s.settle(gen, user, true)
	return user.Clone(), nil
}

// Logout discards the credentials and settles Anonymous. Idempotent: calling
// it without an active session is a no-op that still succeeds.
func (s *Store) Logout(ctx context.Context) error {
	gen := s.begin()
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("credential discard failed")
	}
	s.recordAudit(ctx, domain.AuditLogout, "", "")
	s.settle(gen, nil, true)
	return nil
}

// UpdateProfile applies a partial profile update. Requires a settled
// identity. On success the returned fields are merged into the identity and
// its mirror; on failure the identity is left untouched.
func (s *Store) UpdateProfile(ctx context.Context, patch ports.ProfilePatch) (*domain.User, error) {
	s.mu.Lock()
	anonymous := s.user == nil
	s.mu.Unlock()
	if anonymous {
		return nil, domain.ErrNotAuthenticated
	}

	gen := s.begin()

	updated, err := s.auth.UpdateProfile(ctx, patch)
	if err != nil {
		s.settle(gen, nil, false)
		return nil, err
	}

	s.mu.Lock()
	merged := s.user.Merge(updated)
	s.mu.Unlock()

	if err := s.creds.SetUser(ctx, merged); err != nil {
		s.log.Warn().Err(err).Msg("failed to mirror updated identity")
	}
	s.recordAudit(ctx, domain.AuditProfileUpdate, merged.Email, "")
	s.settle(gen, merged, true)
	return merged.Clone(), nil
}

// Snapshot returns a consistent view of the session.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		User:    s.user.Clone(),
		Loading: !s.booted || s.inflight > 0,
	}
}

// HasRole answers from the current identity. Deterministically false when
// the session is Anonymous.
func (s *Store) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.HasRole(role)
}

// HasPermission answers from the current identity, deny-by-default.
func (s *Store) HasPermission(capability string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.HasPermission(capability)
}

// Service exposes the session's authenticated upstream facade for
// collaborators that call endpoints beyond the session lifecycle, such as
// donation history.
func (s *Store) Service() ports.AuthService {
	return s.auth
}

// recordAudit writes a trail entry best-effort. Audit storage being down
// never fails an auth operation, and a cancelled request must not lose the
// entry, so the write runs detached from the request's cancellation.
func (s *Store) recordAudit(ctx context.Context, action, email, why string) {
	if s.audit == nil {
		return
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	event := &domain.AuthEvent{
		SessionID: s.id,
		Email:     email,
		Action:    action,
		Reason:    why,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Record(auditCtx, event); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to record audit event")
	}
}

func reason(err error) string {
	if err == nil {
		return "no identity returned"
	}
	return err.Error()
}
