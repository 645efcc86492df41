package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/karunya-foundation/donation-gateway/internal/api/handler"
	"github.com/karunya-foundation/donation-gateway/internal/api/middleware"
	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/service"
	"github.com/karunya-foundation/donation-gateway/internal/core/session"
	"github.com/karunya-foundation/donation-gateway/internal/infrastructure/config"
	mongodb "github.com/karunya-foundation/donation-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/karunya-foundation/donation-gateway/internal/infrastructure/db/redis"
	"github.com/karunya-foundation/donation-gateway/internal/infrastructure/memory"
	"github.com/karunya-foundation/donation-gateway/internal/infrastructure/upstream"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *goredis.Client, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("donation_gateway"))

	// --- Dependencies ---
	cipher, err := redisdb.NewTokenCipher(cfg.TokenCipherKey())
	if err != nil {
		return nil, err
	}
	auditRepo := mongodb.NewAuditRepository(db)

	// Each gateway session owns its own credential mirror, upstream client,
	// and auth facade; the manager builds the stack lazily per session ID.
	sessions := session.NewManager(func(sid string) *session.Store {
		creds := redisdb.NewCredentialRepository(rdb, cipher, sid, cfg.SessionTTL)
		client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, creds, log)
		svc := service.NewAuthService(upstream.NewAuthAPI(client), creds, log)
		return session.NewStore(sid, svc, creds, auditRepo, log)
	})

	// Tokenless facade for registration and OTP delivery.
	publicCreds := memory.NewCredentialStore()
	publicClient := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, publicCreds, log)
	publicAuth := service.NewAuthService(upstream.NewAuthAPI(publicClient), publicCreds, log)

	authHandler := handler.NewAuthHandler(sessions, publicAuth, cfg.JWTSecret, cfg.SessionTTL)
	auditHandler := handler.NewAuditHandler(auditRepo)
	healthHandler := handler.NewHealthHandler(db, rdb)

	e.Use(middleware.Session(sessions, cfg.JWTSecret))

	// --- Auth lifecycle ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/otp/send", authHandler.SendOTP)
	e.POST("/auth/otp/verify", authHandler.VerifyOTP)

	// --- Authenticated surface ---
	authed := e.Group("", middleware.RequireAuth())
	authed.GET("/auth/me", authHandler.Me)
	authed.PUT("/auth/profile", authHandler.UpdateProfile)
	authed.GET("/donations/history", authHandler.DonationHistory)

	// --- Admin surface ---
	admin := e.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/audit", auditHandler.List, middleware.RequirePermission(domain.PermManageUsers))

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
