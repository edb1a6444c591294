package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plan2protect/platform/internal/api/metrics"
	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// AuthHandler exposes the administrator password identity service.
type AuthHandler struct {
	idp ports.IdentityProvider
}

func NewAuthHandler(idp ports.IdentityProvider) *AuthHandler {
	return &AuthHandler{idp: idp}
}

type signUpRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignUp creates an administrator account.
//
// @Summary      Register an administrator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Administrator details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/admin/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.idp.SignUp(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "rejected").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "ok").Inc()
	return c.JSON(http.StatusCreated, authResponse{Token: sess.Token, UserID: sess.Subject, ExpiresAt: sess.ExpiresAt})
}

// Login authenticates an administrator and returns a JWT token.
//
// @Summary      Administrator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/admin/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !domain.IsAdminEmail(req.Email) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "rejected").Inc()
		return domain.ErrNotAdministrator
	}

	sess, err := h.idp.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "rejected").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: sess.Token, UserID: sess.Subject, ExpiresAt: sess.ExpiresAt})
}

// Logout revokes the bearer token. Unknown or expired tokens are accepted.
//
// @Summary      Revoke the current token
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.idp.SignOut(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BearerToken extracts the token from an Authorization header value, or ""
// when the header is not a bearer credential.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type meResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me returns the verified claims of the bearer token.
//
// @Summary      Current administrator
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt,
	})
}
