package domain

import "errors"

var (
	// ErrNotAuthenticated marks operations that require an active session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrLoginFailed is the fallback login error when the upstream gave no
	// structured message.
	ErrLoginFailed = errors.New("login failed")
	// ErrSessionNotFound marks requests referencing an unknown or expired
	// gateway session.
	ErrSessionNotFound = errors.New("session not found")
)
