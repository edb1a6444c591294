package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// ClaimsKey is the echo.Context key under which the Auth middleware stores
// the verified *ports.TokenClaims.
const ClaimsKey = "claims"

// ctxClaims extracts the claims injected by the Auth middleware. Their
// absence means the route was registered without it.
func ctxClaims(c echo.Context) (*ports.TokenClaims, error) {
	claims, _ := c.Get(ClaimsKey).(*ports.TokenClaims)
	if claims == nil {
		return nil, fmt.Errorf("%w: missing authentication claims", domain.ErrAuth)
	}
	return claims, nil
}

// bindAndValidate binds the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	return c.Validate(req)
}
