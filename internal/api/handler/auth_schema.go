package handler

import "github.com/karunya-foundation/donation-gateway/internal/core/domain"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password" validate:"required,min=8"`
	OTP          string `json:"otp" validate:"required"`
}

type sendOTPRequest struct {
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
}

type verifyOTPRequest struct {
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	OTP          string `json:"otp" validate:"required"`
}

// updateProfileRequest is a partial update: blank fields stay untouched, and
// a blank password is never forwarded upstream.
type updateProfileRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email" validate:"omitempty,email"`
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password" validate:"omitempty,min=8"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type donationsResponse struct {
	Donations []domain.Donation `json:"donations"`
}

type statusResponse struct {
	Status string `json:"status"`
}
