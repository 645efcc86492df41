package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/karunya-foundation/donation-gateway/internal/api/metrics"
	"github.com/karunya-foundation/donation-gateway/internal/api/middleware"
	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
	"github.com/karunya-foundation/donation-gateway/internal/core/session"
	"github.com/karunya-foundation/donation-gateway/internal/infrastructure/upstream"
)

// loginFallbackMessage is returned when the upstream rejected the login
// without a structured message.
const loginFallbackMessage = "Login failed"

type AuthHandler struct {
	sessions   *session.Manager
	public     ports.AuthService
	jwtSecret  string
	sessionTTL time.Duration
	mintCookie func(jwtSecret, sessionID string, ttl time.Duration) (*http.Cookie, error)
}

// NewAuthHandler wires the session manager plus a tokenless auth facade for
// the pre-session flows (registration, OTP).
func NewAuthHandler(sessions *session.Manager, public ports.AuthService, jwtSecret string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		public:     public,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		mintCookie: middleware.MintSessionCookie,
	}
}

// Login authenticates against the upstream platform and opens a gateway session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sid := uuid.NewString()
	store := h.sessions.Get(sid)

	user, err := store.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.sessions.Evict(sid)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		msg := upstream.ErrorMessage(err)
		if msg == "" {
			msg = loginFallbackMessage
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.SessionsActive.Set(float64(h.sessions.Len()))

	cookie, err := h.mintCookie(h.jwtSecret, sid, h.sessionTTL)
	if err != nil {
		// The upstream token is already mirrored; discard it, the browser
		// will never hold a cookie for this session.
		_ = store.Logout(c.Request().Context())
		h.sessions.Evict(sid)
		metrics.SessionsActive.Set(float64(h.sessions.Len()))
		return err
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Logout tears down the gateway session. Succeeds even when no session is
// active.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid := middleware.SessionIDFrom(c); sid != "" {
		store := h.sessions.Get(sid)
		_ = store.Logout(c.Request().Context())
		h.sessions.Evict(sid)
		metrics.SessionsActive.Set(float64(h.sessions.Len()))
	}
	c.SetCookie(middleware.ExpiredSessionCookie())
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// Me returns the session's verified identity.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	store := middleware.StoreFrom(c)
	if store == nil {
		return domain.ErrSessionNotFound
	}
	return c.JSON(http.StatusOK, userResponse{User: store.Snapshot().User})
}

// Register creates an upstream account. No session is opened; the client
// logs in afterwards.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.public.Register(c.Request().Context(), ports.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
		OTP:          req.OTP,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// SendOTP requests a one-time code for registration.
//
// @Summary      Send OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      sendOTPRequest  true  "Delivery target"
// @Success      200   {object}  statusResponse
// @Router       /auth/otp/send [post]
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.public.SendOTP(c.Request().Context(), req.Email, req.MobileNumber); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// VerifyOTP checks a one-time code.
//
// @Summary      Verify OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Code to verify"
// @Success      200   {object}  statusResponse
// @Router       /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.public.VerifyOTP(c.Request().Context(), req.Email, req.MobileNumber, req.OTP); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// UpdateProfile applies a partial profile update to the current identity.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	store := middleware.StoreFrom(c)
	if store == nil {
		return domain.ErrSessionNotFound
	}
	user, err := store.UpdateProfile(c.Request().Context(), ports.ProfilePatch{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// DonationHistory proxies the donation history for the current identity.
//
// @Summary      Donation history
// @Tags         donations
// @Produce      json
// @Success      200  {object}  donationsResponse
// @Failure      401  {object}  map[string]string
// @Router       /donations/history [get]
func (h *AuthHandler) DonationHistory(c echo.Context) error {
	store := middleware.StoreFrom(c)
	if store == nil {
		return domain.ErrSessionNotFound
	}
	donations, err := store.Service().DonationHistory(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, donationsResponse{Donations: donations})
}
