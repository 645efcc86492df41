package upstream

import (
	"context"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
)

// Upstream routes, relative to the configured base URL.
const (
	pathAdminLogin      = "/admin/auth/login"
	pathUserLogin       = "/users/login"
	pathAdminMe         = "/admin/auth/me"
	pathUserProfile     = "/users/profile"
	pathRegister        = "/users/register"
	pathSendOTP         = "/users/send-otp"
	pathVerifyOTP       = "/users/verify-otp"
	pathDonationHistory = "/donations/history"
)

// AuthAPI implements ports.AuthAPI over the upstream HTTP client, one method
// per route.
type AuthAPI struct {
	client *Client
}

func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

func (a *AuthAPI) AdminLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return a.login(ctx, pathAdminLogin, email, password)
}

func (a *AuthAPI) UserLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return a.login(ctx, pathUserLogin, email, password)
}

func (a *AuthAPI) login(ctx context.Context, path, email, password string) (*ports.LoginResult, error) {
	var resp loginResponse
	if err := a.client.Post(ctx, path, credentialsBody{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: resp.Token, User: resp.User}, nil
}

// AdminMe calls the admin "who am I" endpoint. The response wraps the
// identity in a "user" key.
func (a *AuthAPI) AdminMe(ctx context.Context) (*domain.User, error) {
	var resp struct {
		User *domain.User `json:"user"`
	}
	if err := a.client.Get(ctx, pathAdminMe, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UserProfile calls the user profile endpoint, which returns the identity
// record bare.
func (a *AuthAPI) UserProfile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := a.client.Get(ctx, pathUserProfile, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type registerBody struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password"`
	OTP          string `json:"otp"`
}

func (a *AuthAPI) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	var resp struct {
		User *domain.User `json:"user"`
	}
	body := registerBody{
		Name:         in.Name,
		Email:        in.Email,
		MobileNumber: in.MobileNumber,
		Password:     in.Password,
		OTP:          in.OTP,
	}
	if err := a.client.Post(ctx, pathRegister, body, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

type otpBody struct {
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	OTP          string `json:"otp,omitempty"`
}

func (a *AuthAPI) SendOTP(ctx context.Context, email, mobileNumber string) error {
	return a.client.Post(ctx, pathSendOTP, otpBody{Email: email, MobileNumber: mobileNumber}, nil)
}

func (a *AuthAPI) VerifyOTP(ctx context.Context, email, mobileNumber, otp string) error {
	return a.client.Post(ctx, pathVerifyOTP, otpBody{Email: email, MobileNumber: mobileNumber, OTP: otp}, nil)
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, payload map[string]string) (*domain.User, error) {
	var user domain.User
	if err := a.client.Put(ctx, pathUserProfile, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthAPI) DonationHistory(ctx context.Context) ([]domain.Donation, error) {
	var donations []domain.Donation
	if err := a.client.Get(ctx, pathDonationHistory, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}
