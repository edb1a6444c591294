package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// AnalyticsHandler serves the administrator dashboard. Routes must sit
// behind the Auth and RBAC middleware.
type AnalyticsHandler struct {
	service ports.AnalyticsService
}

func NewAnalyticsHandler(service ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Overview handles GET /api/analytics/overview.
//
// @Summary      Dashboard totals
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Overview
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c echo.Context) error {
	o, err := h.service.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// Users handles GET /api/analytics/users and GET /api/users.
//
// @Summary      All regular users with counts
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/analytics/users [get]
func (h *AnalyticsHandler) Users(c echo.Context) error {
	l, err := h.service.Users(c.Request().Context())
	if err != nil {
		return err
	}
	users := l.Users
	if users == nil {
		users = []domain.Identity{}
	}
	return c.JSON(http.StatusOK, usersResponse{
		Users:        users,
		Total:        l.Total,
		AdminCount:   l.AdminCount,
		RegularCount: l.RegularCount,
	})
}
