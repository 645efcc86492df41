package ports

import (
	"context"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

// AuthAPI is the wire-level view of the upstream auth endpoints, one method
// per route. Implemented by the upstream HTTP client; the service layer
// composes these into the fallback flows.
type AuthAPI interface {
	AdminLogin(ctx context.Context, email, password string) (*LoginResult, error)
	UserLogin(ctx context.Context, email, password string) (*LoginResult, error)
	AdminMe(ctx context.Context) (*domain.User, error)
	UserProfile(ctx context.Context) (*domain.User, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	SendOTP(ctx context.Context, email, mobileNumber string) error
	VerifyOTP(ctx context.Context, email, mobileNumber, otp string) error
	// UpdateProfile receives the already-filtered payload: keys the caller
	// chose to omit are simply absent from the map.
	UpdateProfile(ctx context.Context, payload map[string]string) (*domain.User, error)
	DonationHistory(ctx context.Context) ([]domain.Donation, error)
}
