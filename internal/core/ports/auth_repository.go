package ports

import (
	"context"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

// CredentialRepository persists password accounts of the identity service.
type CredentialRepository interface {
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, cred *domain.Credential) (*domain.Credential, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

// TokenRevoker records signed-out tokens until they would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
