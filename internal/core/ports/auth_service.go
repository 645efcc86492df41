package ports

import (
	"context"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

// LoginResult carries the upstream login response: the bearer token plus
// whatever identity payload the endpoint chose to include.
type LoginResult struct {
	Token string
	User  *domain.User
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Name         string
	Email        string
	MobileNumber string
	Password     string
	OTP          string
}

// ProfilePatch is a partial profile update. Blank fields are omitted from
// the request entirely; in particular a blank Password must never be sent.
type ProfilePatch struct {
	Name         string
	Email        string
	MobileNumber string
	Password     string
}

// AuthService is the stateless facade over the upstream auth endpoints. It
// absorbs the platform's dual-principal ambiguity: administrators and
// ordinary users authenticate against different endpoints but are presented
// as one concept.
type AuthService interface {
	// Login tries the admin endpoint first, then falls back to the user
	// endpoint with the same credentials. On success the token is persisted
	// before returning, so a follow-up CurrentUser call is authenticated.
	// When both attempts fail, the second endpoint's error is returned.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// CurrentUser tries the admin "who am I" endpoint, then the user
	// profile endpoint. Any failure means "no identity" to callers.
	CurrentUser(ctx context.Context) (*domain.User, error)

	// Logout discards the persisted credentials. Purely local, idempotent.
	Logout(ctx context.Context) error

	// IsAuthenticated reports whether a token is currently persisted. A
	// fast pre-check only: necessary, not sufficient, for a valid session.
	IsAuthenticated(ctx context.Context) (bool, error)

	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	SendOTP(ctx context.Context, email, mobileNumber string) error
	VerifyOTP(ctx context.Context, email, mobileNumber, otp string) error
	UpdateProfile(ctx context.Context, patch ProfilePatch) (*domain.User, error)
	DonationHistory(ctx context.Context) ([]domain.Donation, error)
}
