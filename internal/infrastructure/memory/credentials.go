// Package memory provides an in-process credential store for flows that
// carry no session (registration, OTP delivery) and for tests.
package memory

import (
	"context"
	"sync"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

// CredentialStore keeps the token and identity mirror in memory. It
// satisfies the same contract as the Redis repository without persistence.
type CredentialStore struct {
	mu    sync.Mutex
	token string
	user  *domain.User
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *CredentialStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *CredentialStore) User(_ context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone(), nil
}

func (s *CredentialStore) SetUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user.Clone()
	return nil
}

func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}
