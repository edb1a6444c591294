package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plan2protect/platform/internal/api/metrics"
	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// UserHandler handles HTTP requests for regular identities.
type UserHandler struct {
	accounts ports.AccountService
}

func NewUserHandler(accounts ports.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Create registers an email-only identity.
//
// @Summary      Register a regular user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Name, email and optional plan"
// @Success      201   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/users/create [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ident, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
		Plan:  domain.PlanTier(req.Plan),
	})
	if err != nil {
		return err
	}

	metrics.UsersRegisteredTotal.WithLabelValues(string(ident.PlanTier)).Inc()
	return c.JSON(http.StatusCreated, ident)
}

// Login looks a user up by email and stamps the login time.
//
// @Summary      Sign in by email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      emailLoginRequest  true  "Email"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req emailLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ident, err := h.accounts.Login(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ident)
}

// GetByEmail handles GET /api/users/:email.
//
// @Summary      Get a user by email
// @Tags         users
// @Produce      json
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  domain.Identity
// @Failure      404    {object}  map[string]string
// @Router       /api/users/{email} [get]
func (h *UserHandler) GetByEmail(c echo.Context) error {
	ident, err := h.accounts.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ident)
}

// GetByID handles GET /api/users/id/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.Identity
// @Failure      404  {object}  map[string]string
// @Router       /api/users/id/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	ident, err := h.accounts.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ident)
}

// UpgradePlan handles PUT /api/users/:id/plan.
//
// @Summary      Change a user's plan
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "User id"
// @Param        body  body      planRequest  true  "New plan"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id}/plan [put]
func (h *UserHandler) UpgradePlan(c echo.Context) error {
	var req planRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ident, err := h.accounts.UpgradePlan(c.Request().Context(), c.Param("id"), domain.PlanTier(req.Plan))
	if err != nil {
		return err
	}

	metrics.PlanChangesTotal.WithLabelValues(req.Plan).Inc()
	return c.JSON(http.StatusOK, ident)
}

// UpdateProfile handles PUT /api/users/:id/profile.
//
// @Summary      Update a user's display name
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "User id"
// @Param        body  body      profileRequest  true  "Profile"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id}/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ident, err := h.accounts.UpdateProfile(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ident)
}

// UpdateStorage handles POST /api/users/:id/update-storage. The body carries
// the new absolute total.
//
// @Summary      Set a user's storage total
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "User id"
// @Param        body  body      storageRequest  true  "Storage total in MB"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id}/update-storage [post]
func (h *UserHandler) UpdateStorage(c echo.Context) error {
	var req storageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ident, err := h.accounts.UpdateStorage(c.Request().Context(), c.Param("id"), *req.StorageUsed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ident)
}

// RecordAssessment handles POST /api/users/:id/record-assessment.
//
// @Summary      Count one completed assessment
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.Identity
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id}/record-assessment [post]
func (h *UserHandler) RecordAssessment(c echo.Context) error {
	ident, err := h.accounts.RecordAssessment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ident)
}

// Limits handles GET /api/user-limits/:id. Remaining assessments is -1 for
// unlimited plans.
//
// @Summary      Usage against plan limits
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  limitsResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/user-limits/{id} [get]
func (h *UserHandler) Limits(c echo.Context) error {
	l, err := h.accounts.Limits(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, limitsResponse{
		Plan:                 l.Plan,
		AssessmentsUsed:      l.AssessmentsUsed,
		AssessmentsLimit:     l.AssessmentsLimit,
		AssessmentsRemaining: l.AssessmentsRemaining,
		StorageUsed:          l.StorageUsedMB,
		StorageLimit:         l.StorageLimitMB,
		StorageRemaining:     l.StorageRemainingMB,
	})
}

// CheckAdmin handles GET /api/check-admin/:email.
//
// @Summary      Administrator allow-list lookup
// @Tags         users
// @Produce      json
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  checkAdminResponse
// @Router       /api/check-admin/{email} [get]
func (h *UserHandler) CheckAdmin(c echo.Context) error {
	email := domain.NormalizeEmail(c.Param("email"))
	return c.JSON(http.StatusOK, checkAdminResponse{Email: email, IsAdmin: domain.IsAdminEmail(email)})
}

// Plans handles GET /api/plans.
//
// @Summary      List subscription plans
// @Tags         plans
// @Produce      json
// @Success      200  {object}  plansResponse
// @Router       /api/plans [get]
func Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, plansResponse{Plans: domain.Plans()})
}
