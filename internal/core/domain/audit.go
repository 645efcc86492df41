package domain

import "time"

// Audit actions recorded by the session layer.
const (
	AuditLoginSuccess     = "login_success"
	AuditLoginFailure     = "login_failure"
	AuditLogout           = "logout"
	AuditBootstrapInvalid = "bootstrap_invalid"
	AuditProfileUpdate    = "profile_update"
)

// AuthEvent is one entry in the authentication audit trail. SessionID is the
// gateway session identifier, never the upstream bearer token.
type AuthEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Email     string    `json:"email,omitempty"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
