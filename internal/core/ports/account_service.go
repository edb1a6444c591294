package ports

import (
	"context"

	"github.com/plan2protect/platform/internal/core/domain"
)

// RegisterInput is the DTO for email-only registration.
type RegisterInput struct {
	Name  string
	Email string
	Plan  domain.PlanTier // empty means free
}

// UsageLimits reports usage against the identity's quota. Remaining
// assessments is domain.Unlimited for unlimited tiers.
type UsageLimits struct {
	Plan                 domain.PlanTier
	AssessmentsUsed      int
	AssessmentsLimit     int
	AssessmentsRemaining int
	StorageUsedMB        float64
	StorageLimitMB       int
	StorageRemainingMB   float64
}

// AccountService defines use-case operations on regular identities.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email string) (*domain.Identity, error)
	Get(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, id, name string) (*domain.Identity, error)
	UpdateStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error)
	RecordAssessment(ctx context.Context, id string) (*domain.Identity, error)
	Limits(ctx context.Context, id string) (*UsageLimits, error)
}
