package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
)

// AuthService implements ports.AuthService over the upstream API, absorbing
// the dual admin/user endpoint split. Administrators are tried first; the
// upstream server remains the authority on role.
type AuthService struct {
	api   ports.AuthAPI
	creds ports.CredentialStore
	log   zerolog.Logger
}

func NewAuthService(api ports.AuthAPI, creds ports.CredentialStore, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, creds: creds, log: log}
}

// Login tries the admin endpoint, then the user endpoint with the same
// credentials. On success the token is persisted before returning so the
// identity fetch in the same transaction is itself authenticated. When both
// endpoints reject, the second endpoint's error is returned.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	result, adminErr := s.api.AdminLogin(ctx, email, password)
	if adminErr != nil {
		s.log.Debug().Err(adminErr).Msg("admin login rejected, trying user endpoint")
		var userErr error
		result, userErr = s.api.UserLogin(ctx, email, password)
		if userErr != nil {
			return nil, userErr
		}
	}
	if err := s.creds.SetToken(ctx, result.Token); err != nil {
		return nil, err
	}
	return result, nil
}

// CurrentUser tries the admin "who am I" endpoint, falling back to the user
// profile endpoint. Both failing collapses to a single error: callers treat
// any failure as "no identity".
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	user, adminErr := s.api.AdminMe(ctx)
	if adminErr == nil && user != nil {
		return user, nil
	}
	if adminErr != nil {
		s.log.Debug().Err(adminErr).Msg("admin identity fetch failed, trying user profile")
	}
	user, userErr := s.api.UserProfile(ctx)
	if userErr != nil {
		return nil, userErr
	}
	return user, nil
}

// Logout discards the persisted credentials. No upstream call is made;
// expiry is server-enforced. Safe to call with no active session.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.creds.Clear(ctx)
}

// IsAuthenticated reports whether a token is persisted. Necessary but not
// sufficient for a valid session; identity verification decides.
func (s *AuthService) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.api.Register(ctx, in)
}

func (s *AuthService) SendOTP(ctx context.Context, email, mobileNumber string) error {
	return s.api.SendOTP(ctx, email, mobileNumber)
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, mobileNumber, otp string) error {
	return s.api.VerifyOTP(ctx, email, mobileNumber, otp)
}

// UpdateProfile sends only the fields the caller set. A blank password is
// omitted from the payload entirely, never sent as an empty string.
func (s *AuthService) UpdateProfile(ctx context.Context, patch ports.ProfilePatch) (*domain.User, error) {
	payload := make(map[string]string)
	if patch.Name != "" {
		payload["name"] = patch.Name
	}
	if patch.Email != "" {
		payload["email"] = patch.Email
	}
	if patch.MobileNumber != "" {
		payload["mobileNumber"] = patch.MobileNumber
	}
	if patch.Password != "" {
		payload["password"] = patch.Password
	}
	return s.api.UpdateProfile(ctx, payload)
}

func (s *AuthService) DonationHistory(ctx context.Context) ([]domain.Donation, error) {
	return s.api.DonationHistory(ctx)
}
