package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/karunya-foundation/donation-gateway/internal/api/metrics"
	"github.com/karunya-foundation/donation-gateway/internal/core/session"
)

// Echo context keys set by the Session middleware.
const (
	KeySessionID    = "session_id"
	KeySessionStore = "session_store"
)

// CookieName is the gateway session cookie: a signed JWT carrying only the
// session ID. The upstream bearer token never reaches the browser.
const CookieName = "dg_session"

// MintSessionCookie signs a session cookie for the given session ID.
func MintSessionCookie(jwtSecret, sessionID string, ttl time.Duration) (*http.Cookie, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredSessionCookie returns a cookie that deletes the session cookie.
func ExpiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// parseSessionID validates the cookie JWT and extracts the session ID.
func parseSessionID(jwtSecret, value string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid session cookie")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errors.New("session cookie missing sid")
	}
	return sid, nil
}

// Session resolves the session cookie into a bootstrapped session store and
// attaches it to the request context. Requests without a valid cookie pass
// through anonymous; the guards decide what that means per route.
//
// Bootstrap runs at most once per store. The first request after a restart
// pays the identity re-verification; everyone else reads settled state.
func Session(mgr *session.Manager, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			sid, err := parseSessionID(jwtSecret, cookie.Value)
			if err != nil {
				// Tampered or expired cookie: treat as anonymous.
				return next(c)
			}

			store := mgr.Get(sid)
			if store.Bootstrap(c.Request().Context()) {
				result := "anonymous"
				if store.Snapshot().Authenticated() {
					result = "authenticated"
				}
				metrics.BootstrapsTotal.WithLabelValues(result).Inc()
			}

			c.Set(KeySessionID, sid)
			c.Set(KeySessionStore, store)
			return next(c)
		}
	}
}

// StoreFrom extracts the session store attached by Session, or nil for an
// anonymous request.
func StoreFrom(c echo.Context) *session.Store {
	store, _ := c.Get(KeySessionStore).(*session.Store)
	return store
}

// SessionIDFrom extracts the session ID, or "" for an anonymous request.
func SessionIDFrom(c echo.Context) string {
	sid, _ := c.Get(KeySessionID).(string)
	return sid
}
