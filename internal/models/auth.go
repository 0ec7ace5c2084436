package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ResetPasswordRequest initiates the email reset flow.
type ResetPasswordRequest struct {
	Destination string `json:"destination" validate:"required,email"`
}

// ConfirmResetPasswordRequest completes the reset flow.
type ConfirmResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UserInfo describes the authenticated user in responses. Details carries
// the role-matched student or admin profile.
type UserInfo struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Role        UserRole      `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	Details     interface{}   `json:"details"`
}

// JWTClaims is the access-token payload. Role and permission tags ride in
// the token so the access gate never needs a database round trip.
type JWTClaims struct {
	UserID      string        `json:"user_id"`
	Email       string        `json:"email"`
	Role        UserRole      `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	jwt.RegisteredClaims
}
