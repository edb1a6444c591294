package ports

import (
	"context"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

// IdentityRepository persists identity records. The same contract serves the
// regular users collection and the administrator collection.
type IdentityRepository interface {
	// Insert returns domain.ErrUserExists when the email is already stored.
	Insert(ctx context.Context, ident *domain.Identity) error
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	// Update replaces the stored record and returns domain.ErrUserNotFound
	// when there is none.
	Update(ctx context.Context, ident *domain.Identity) error
	// IncrementAssessments adds one completed assessment stamped at and
	// returns the updated record.
	IncrementAssessments(ctx context.Context, id string, at time.Time) (*domain.Identity, error)
	// SetStorage overwrites the storage total and returns the updated record.
	SetStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error)
}
