package dto

import "github.com/noah-isme/datamatch-api/internal/models"

// RegisterRequest creates or refreshes an unverified account.
type RegisterRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Username string          `json:"username" validate:"required,max=64"`
	Password string          `json:"password" validate:"required,min=6"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=student professor"`
}

// VerifyCodeRequest exchanges a one-time code for a token.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// LoginRequest authenticates with a password, or requests a login code when Password is empty.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks for a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password using a reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse is returned by every flow that issues a token. Token is empty
// when a code was sent instead.
type AuthResponse struct {
	Token string           `json:"token,omitempty"`
	User  *models.UserInfo `json:"user,omitempty"`
}
