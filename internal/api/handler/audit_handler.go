package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
	"github.com/karunya-foundation/donation-gateway/internal/core/ports"
)

const defaultAuditLimit = 50

type AuditHandler struct {
	repo ports.AuditRepository
}

func NewAuditHandler(repo ports.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

type auditResponse struct {
	Events []domain.AuthEvent `json:"events"`
}

// List returns the newest authentication audit events.
//
// @Summary      Authentication audit trail
// @Tags         admin
// @Produce      json
// @Param        limit  query     int  false  "Maximum events to return"
// @Success      200    {object}  auditResponse
// @Failure      403    {object}  map[string]string
// @Router       /admin/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	limit := int64(defaultAuditLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	events, err := h.repo.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, auditResponse{Events: events})
}
