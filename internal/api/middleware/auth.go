package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plan2protect/platform/internal/api/handler"
	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// TokenVerifier checks a bearer token, including revocation.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*ports.TokenClaims, error)
}

// Auth verifies the bearer token and injects its claims into context under
// handler.ClaimsKey, with the role also under "role".
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			token := handler.BearerToken(authHeader)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAuth) {
					return err
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "token verification unavailable").SetInternal(err)
			}

			c.Set(handler.ClaimsKey, claims)
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}
