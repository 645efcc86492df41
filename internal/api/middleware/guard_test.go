package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
	"github.com/karunya-foundation/donation-gateway/internal/core/session"
)

// guardAuth is a minimal ports.AuthService for building stores in guard
// tests. CurrentUser can be gated to hold a store in its loading window.
type guardAuth struct {
	token string
	user  *domain.User
	gate  chan struct{}
	enter chan struct{}
}

func (g *guardAuth) Login(_ context.Context, _, _ string) (*ports.LoginResult, error) {
	g.token = "tok"
	return &ports.LoginResult{Token: g.token}, nil
}

func (g *guardAuth) CurrentUser(_ context.Context) (*domain.User, error) {
	if g.enter != nil {
		close(g.enter)
		g.enter = nil
	}
	if g.gate != nil {
		<-g.gate
	}
	if g.user == nil {
		return nil, errors.New("no identity")
	}
	return g.user, nil
}

func (g *guardAuth) Logout(_ context.Context) error {
	g.token = ""
	return nil
}

func (g *guardAuth) IsAuthenticated(_ context.Context) (bool, error) {
	return g.token != "", nil
}

func (g *guardAuth) Register(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (g *guardAuth) SendOTP(_ context.Context, _, _ string) error { return nil }

func (g *guardAuth) VerifyOTP(_ context.Context, _, _, _ string) error { return nil }

func (g *guardAuth) UpdateProfile(_ context.Context, _ ports.ProfilePatch) (*domain.User, error) {
	return g.user, nil
}

func (g *guardAuth) DonationHistory(_ context.Context) ([]domain.Donation, error) {
	return nil, nil
}

type nopCreds struct{}

func (nopCreds) Token(context.Context) (string, error)       { return "", nil }
func (nopCreds) SetToken(context.Context, string) error      { return nil }
func (nopCreds) User(context.Context) (*domain.User, error)  { return nil, nil }
func (nopCreds) SetUser(context.Context, *domain.User) error { return nil }
func (nopCreds) Clear(context.Context) error                 { return nil }

func settledStore(t *testing.T, user *domain.User) *session.Store {
	t.Helper()
	auth := &guardAuth{user: user}
	if user != nil {
		auth.token = "tok"
	}
	store := session.NewStore("s1", auth, nopCreds{}, nil, zerolog.Nop())
	store.Bootstrap(context.Background())
	if st := store.Snapshot(); st.Loading {
		t.Fatalf("store failed to settle")
	}
	return store
}

func runGuard(t *testing.T, mw echo.MiddlewareFunc, store *session.Store, accept string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if store != nil {
		c.Set(KeySessionStore, store)
	}

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestGuard_LoadingShortCircuitsFirst(t *testing.T) {
	// The store already verified an identity once, then a new mutation is
	// in flight: loading must win over the cached identity.
	gate := make(chan struct{})
	entered := make(chan struct{})
	auth := &guardAuth{token: "tok", user: &domain.User{ID: "u1", Role: domain.RoleAdmin}}
	store := session.NewStore("s1", auth, nopCreds{}, nil, zerolog.Nop())
	store.Bootstrap(context.Background())

	auth.gate = gate
	auth.enter = entered
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Login(context.Background(), "a@b.com", "pw")
	}()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatalf("mutation never started")
	}

	rec := runGuard(t, RequireRole(domain.RoleAdmin), store, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("loading session must get 503, got %d", rec.Code)
	}

	close(gate)
	<-done
}

func TestGuard_LoadingWinsOverAnonymous(t *testing.T) {
	// Unbootstrapped store: loading and anonymous at once. The same snapshot
	// feeds both checks and loading is decided first, so the answer is
	// retry, not a login redirect.
	store := session.NewStore("s1", &guardAuth{}, nopCreds{}, nil, zerolog.Nop())

	rec := runGuard(t, RequireAuth(), store, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("loading must be decided before authentication, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("retry hint missing")
	}
}

func TestGuard_AnonymousRedirectsToLogin(t *testing.T) {
	store := settledStore(t, nil)

	rec := runGuard(t, RequireAuth(), store, echo.MIMETextHTML)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != LoginPath {
		t.Fatalf("expected redirect to %s, got %s", LoginPath, loc)
	}
}

func TestGuard_AnonymousAPIGets401(t *testing.T) {
	rec := runGuard(t, RequireAuth(), settledStore(t, nil), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuard_NoSessionStoreIsAnonymous(t *testing.T) {
	rec := runGuard(t, RequireAuth(), nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session store, got %d", rec.Code)
	}
}

func TestGuard_WrongRoleGoesToAccessDeniedNotLogin(t *testing.T) {
	store := settledStore(t, &domain.User{ID: "u1", Role: domain.RoleUser})

	rec := runGuard(t, RequireRole(domain.RoleAdmin), store, echo.MIMETextHTML)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != AccessDeniedPath {
		t.Fatalf("authenticated-but-unauthorized must go to %s, got %s", AccessDeniedPath, loc)
	}
}

func TestGuard_WrongRoleAPIGets403(t *testing.T) {
	store := settledStore(t, &domain.User{ID: "u1", Role: domain.RoleUser})

	rec := runGuard(t, RequireRole(domain.RoleAdmin), store, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestGuard_AdminPasses(t *testing.T) {
	store := settledStore(t, &domain.User{ID: "u1", Role: domain.RoleAdmin})

	rec := runGuard(t, RequireRole(domain.RoleAdmin), store, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuard_PermissionFlowsThroughRoleImplication(t *testing.T) {
	// Singular role "admin" grants MANAGE_USERS via the implication table.
	store := settledStore(t, &domain.User{ID: "u1", Role: domain.RoleAdmin})
	if rec := runGuard(t, RequirePermission(domain.PermManageUsers), store, ""); rec.Code != http.StatusOK {
		t.Fatalf("admin must hold MANAGE_USERS, got %d", rec.Code)
	}

	viewer := settledStore(t, &domain.User{ID: "u2", Role: domain.RoleUser, Roles: []string{domain.TagViewer}})
	if rec := runGuard(t, RequirePermission(domain.PermManageUsers), viewer, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("viewer must not hold MANAGE_USERS, got %d", rec.Code)
	}
}
