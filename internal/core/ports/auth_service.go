package ports

import (
	"context"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	Subject   string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports the administrator role claim.
func (c TokenClaims) IsAdmin() bool { return c.Role == domain.RoleAdmin }

// IdentityProvider is the password identity service used by administrators.
type IdentityProvider interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// SignOut revokes the token. Unknown or expired tokens are not an error.
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*TokenClaims, error)
}
