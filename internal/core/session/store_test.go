package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// stubAuth is a scriptable ports.AuthService. CurrentUser can be gated to
// simulate a slow identity fetch.
type stubAuth struct {
	mu           sync.Mutex
	token        string
	loginErr     error
	currentUser  *domain.User
	currentErr   error
	currentGate  chan struct{} // when non-nil, CurrentUser blocks until closed
	currentEnter chan struct{} // closed once CurrentUser has been entered
	currentCalls int
	logoutCalls  int
	updateCalls  int
}

func (s *stubAuth) Login(_ context.Context, _, _ string) (*ports.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	s.token = "tok"
	return &ports.LoginResult{Token: s.token}, nil
}

func (s *stubAuth) CurrentUser(_ context.Context) (*domain.User, error) {
	s.mu.Lock()
	s.currentCalls++
	gate, enter := s.currentGate, s.currentEnter
	user, err := s.currentUser, s.currentErr
	s.mu.Unlock()

	if enter != nil {
		close(enter)
		s.mu.Lock()
		s.currentEnter = nil
		s.mu.Unlock()
	}
	if gate != nil {
		<-gate
	}
	return user, err
}

func (s *stubAuth) Logout(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutCalls++
	s.token = ""
	return nil
}

func (s *stubAuth) IsAuthenticated(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "", nil
}

func (s *stubAuth) Register(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuth) SendOTP(_ context.Context, _, _ string) error { return nil }

func (s *stubAuth) VerifyOTP(_ context.Context, _, _, _ string) error { return nil }

func (s *stubAuth) UpdateProfile(_ context.Context, _ ports.ProfilePatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	return s.currentUser, s.currentErr
}

func (s *stubAuth) DonationHistory(_ context.Context) ([]domain.Donation, error) {
	return nil, nil
}

type nopCreds struct{}

func (nopCreds) Token(context.Context) (string, error)            { return "", nil }
func (nopCreds) SetToken(context.Context, string) error           { return nil }
func (nopCreds) User(context.Context) (*domain.User, error)       { return nil, nil }
func (nopCreds) SetUser(context.Context, *domain.User) error      { return nil }
func (nopCreds) Clear(context.Context) error                      { return nil }

func newTestStore(auth ports.AuthService) *Store {
	return NewStore("s1", auth, nopCreds{}, nil, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func TestBootstrap_Determinism(t *testing.T) {
	alice := &domain.User{ID: "u1", Name: "Alice", Role: domain.RoleUser}

	tests := []struct {
		name          string
		auth          *stubAuth
		wantAuthed    bool
		wantMeCalls   int
		wantDiscarded bool
	}{
		{
			name:        "no token settles anonymous without a network call",
			auth:        &stubAuth{},
			wantAuthed:  false,
			wantMeCalls: 0,
		},
		{
			name:        "token and identity settle authenticated",
			auth:        &stubAuth{token: "tok", currentUser: alice},
			wantAuthed:  true,
			wantMeCalls: 1,
		},
		{
			name:          "token with failing fetch discards the token",
			auth:          &stubAuth{token: "tok", currentErr: errors.New("upstream down")},
			wantAuthed:    false,
			wantMeCalls:   1,
			wantDiscarded: true,
		},
		{
			name:          "token with absent identity discards the token",
			auth:          &stubAuth{token: "tok"},
			wantAuthed:    false,
			wantMeCalls:   1,
			wantDiscarded: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(tc.auth)

			if !store.Bootstrap(context.Background()) {
				t.Fatalf("first Bootstrap must run")
			}

			st := store.Snapshot()
			if st.Loading {
				t.Fatalf("loading must terminate after bootstrap")
			}
			if st.Authenticated() != tc.wantAuthed {
				t.Fatalf("authenticated = %v, want %v", st.Authenticated(), tc.wantAuthed)
			}
			if tc.auth.currentCalls != tc.wantMeCalls {
				t.Fatalf("identity fetches = %d, want %d", tc.auth.currentCalls, tc.wantMeCalls)
			}
			if tc.wantDiscarded && tc.auth.logoutCalls == 0 {
				t.Fatalf("invalid token must be discarded")
			}
		})
	}
}

func TestBootstrap_RunsOnce(t *testing.T) {
	auth := &stubAuth{token: "tok", currentUser: &domain.User{ID: "u1"}}
	store := newTestStore(auth)

	if !store.Bootstrap(context.Background()) {
		t.Fatalf("first Bootstrap must run")
	}
	if store.Bootstrap(context.Background()) {
		t.Fatalf("second Bootstrap must be a no-op")
	}
	if auth.currentCalls != 1 {
		t.Fatalf("identity fetched %d times, want 1", auth.currentCalls)
	}
}

func TestSnapshot_LoadingBeforeBootstrap(t *testing.T) {
	store := newTestStore(&stubAuth{})
	if !store.Snapshot().Loading {
		t.Fatalf("a store that never bootstrapped is still loading")
	}
}

// ---------------------------------------------------------------------------
// Login / Logout
// ---------------------------------------------------------------------------

func TestLogin_Success(t *testing.T) {
	alice := &domain.User{ID: "u1", Name: "Alice", Role: domain.RoleUser}
	auth := &stubAuth{currentUser: alice}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())

	user, err := store.Login(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}

	st := store.Snapshot()
	if !st.Authenticated() || st.Loading {
		t.Fatalf("expected settled authenticated state, got %+v", st)
	}
}

func TestLogin_RepeatedFailureStaysAnonymous(t *testing.T) {
	auth := &stubAuth{loginErr: errors.New("Invalid credentials")}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())

	for i := 0; i < 3; i++ {
		if _, err := store.Login(context.Background(), "a@b.com", "wrong"); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
		st := store.Snapshot()
		if st.Authenticated() || st.Loading {
			t.Fatalf("attempt %d: expected settled anonymous state, got %+v", i, st)
		}
	}
}

func TestLogin_IdentityFetchFailureDiscardsToken(t *testing.T) {
	auth := &stubAuth{currentErr: errors.New("no identity behind token")}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())

	_, err := store.Login(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, domain.ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	if auth.logoutCalls == 0 {
		t.Fatalf("accepted token without identity must be discarded")
	}
	if store.Snapshot().Authenticated() {
		t.Fatalf("state must stay anonymous")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	store := newTestStore(&stubAuth{})
	store.Bootstrap(context.Background())

	for i := 0; i < 2; i++ {
		if err := store.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d errored: %v", i, err)
		}
		st := store.Snapshot()
		if st.Authenticated() || st.Loading {
			t.Fatalf("logout %d: expected settled anonymous state, got %+v", i, st)
		}
	}
}

// ---------------------------------------------------------------------------
// Stale in-flight fetch
// ---------------------------------------------------------------------------

func TestLogin_SupersededByLogout(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	auth := &stubAuth{
		currentUser:  &domain.User{ID: "u1"},
		currentGate:  gate,
		currentEnter: entered,
	}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Login(context.Background(), "a@b.com", "pw")
	}()

	// Wait for the login's identity fetch to be in flight.
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatalf("identity fetch never started")
	}

	if !store.Snapshot().Loading {
		t.Fatalf("an in-flight mutation must report loading")
	}

	// The user logs out while the fetch is still pending.
	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	close(gate)
	<-done

	st := store.Snapshot()
	if st.Authenticated() {
		t.Fatalf("stale login fetch must not overwrite the logout")
	}
	if st.Loading {
		t.Fatalf("loading must terminate after all operations settle")
	}
}

// ---------------------------------------------------------------------------
// Profile update
// ---------------------------------------------------------------------------

func TestUpdateProfile_FailureLeavesIdentityUntouched(t *testing.T) {
	alice := &domain.User{ID: "u1", Name: "Alice", Role: domain.RoleUser}
	auth := &stubAuth{currentUser: alice}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())
	if _, err := store.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	auth.mu.Lock()
	auth.currentErr = errors.New("validation rejected")
	auth.currentUser = nil
	auth.mu.Unlock()

	if _, err := store.UpdateProfile(context.Background(), ports.ProfilePatch{Name: "Mallory"}); err == nil {
		t.Fatalf("expected update error")
	}

	st := store.Snapshot()
	if st.User == nil || st.User.Name != "Alice" {
		t.Fatalf("identity must be untouched after a failed update: %+v", st.User)
	}
}

func TestUpdateProfile_AnonymousRejected(t *testing.T) {
	auth := &stubAuth{}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())

	_, err := store.UpdateProfile(context.Background(), ports.ProfilePatch{Name: "Mallory"})
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if auth.updateCalls != 0 {
		t.Fatalf("anonymous update must not reach the upstream")
	}
	if st := store.Snapshot(); st.Loading {
		t.Fatalf("rejected update must not leave the session loading")
	}
}

func TestUpdateProfile_MergesReturnedFields(t *testing.T) {
	alice := &domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser}
	auth := &stubAuth{currentUser: alice}
	store := newTestStore(auth)
	store.Bootstrap(context.Background())
	if _, err := store.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	auth.mu.Lock()
	auth.currentUser = &domain.User{Name: "Alicia"}
	auth.mu.Unlock()

	user, err := store.UpdateProfile(context.Background(), ports.ProfilePatch{Name: "Alicia"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if user.Name != "Alicia" || user.Email != "alice@example.com" || user.ID != "u1" {
		t.Fatalf("merge lost fields: %+v", user)
	}
}

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

func TestStorePredicates_AnonymousAlwaysFalse(t *testing.T) {
	store := newTestStore(&stubAuth{})
	store.Bootstrap(context.Background())

	if store.HasRole(domain.RoleAdmin) || store.HasPermission(domain.PermView) {
		t.Fatalf("anonymous sessions hold no roles or permissions")
	}
}
