package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/karunya-foundation/donation-gateway/internal/core/session"
)

// Redirect targets for browser requests hitting a guard.
const (
	LoginPath        = "/login"
	AccessDeniedPath = "/access-denied"
)

// Guard checks run in a fixed order: loading, then authenticated, then
// authorized.
// The loading short-circuit comes first so a request racing an in-flight
// session mutation gets a retry rather than a flash decision based on stale
// identity. The order is never rearranged.

// RequireAuth admits only requests with a settled, authenticated session.
func RequireAuth() echo.MiddlewareFunc {
	return guard(func(c echo.Context) error { return nil })
}

// RequireRole admits only authenticated sessions holding the given role.
// Unauthorized-but-authenticated requests go to the access-denied path, not
// the login path.
func RequireRole(role string) echo.MiddlewareFunc {
	return guard(func(c echo.Context) error {
		if !StoreFrom(c).HasRole(role) {
			return deny(c)
		}
		return nil
	})
}

// RequirePermission admits only sessions holding the given capability.
// Unknown capabilities deny everyone.
func RequirePermission(capability string) echo.MiddlewareFunc {
	return guard(func(c echo.Context) error {
		if !StoreFrom(c).HasPermission(capability) {
			return deny(c)
		}
		return nil
	})
}

// guard wraps the shared loading/authentication checks around an
// authorization check.
func guard(authorize func(c echo.Context) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// One snapshot for both checks: a mutation starting between a
			// loading check and an authentication check must not slip through.
			store := StoreFrom(c)
			var st session.State
			if store != nil {
				st = store.Snapshot()
			}
			if st.Loading {
				// Neutral waiting state: no authorization decision yet.
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is settling, retry")
			}
			if store == nil || !st.Authenticated() {
				if wantsHTML(c) {
					return c.Redirect(http.StatusFound, LoginPath)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if err := authorize(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func deny(c echo.Context) error {
	if wantsHTML(c) {
		return c.Redirect(http.StatusFound, AccessDeniedPath)
	}
	return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
}

func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
