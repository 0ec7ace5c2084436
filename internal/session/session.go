package session

import (
	"time"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

// Session is the authenticated state recorded for one user. It is the
// single source of truth consulted on every protected request, so
// revoking it signs the user out everywhere at once.
type Session struct {
	UserID      string               `json:"user_id"`
	Email       string               `json:"email"`
	Role        models.UserRole      `json:"role"`
	Permissions models.PermissionSet `json:"permissions"`
	TokenID     string               `json:"token_id"`
	IssuedAt    time.Time            `json:"issued_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

// Event kinds broadcast between portal instances.
const (
	EventLogin  = "login"
	EventLogout = "logout"
)

// Event describes a session change another instance should apply.
type Event struct {
	Kind    string   `json:"kind"`
	UserID  string   `json:"user_id"`
	Session *Session `json:"session,omitempty"`
}
