package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// AccountService manages regular identities: email-only registration, plan
// changes and usage counters.
type AccountService struct {
	repo   ports.IdentityRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAccountService(repo ports.IdentityRepository, logger zerolog.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a free (or requested tier) identity. Administrator emails
// are refused: they must go through the password identity service.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if domain.IsAdminEmail(email) {
		return nil, domain.ErrAdminEmail
	}
	tier := in.Plan
	if tier == "" {
		tier = domain.PlanFree
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidInput, tier)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	ident := domain.NewIdentity(uuid.NewString(), in.Name, email, now)
	if tier != domain.PlanFree {
		ident.ApplyPlan(tier, now)
	}

	if err := s.repo.Insert(ctx, &ident); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return nil, err
	}

	s.logger.Info().Str("user_id", ident.ID).Str("plan", string(ident.PlanTier)).Msg("user created")
	return &ident, nil
}

// Login looks the identity up by email and stamps LastLoginAt.
func (s *AccountService) Login(ctx context.Context, email string) (*domain.Identity, error) {
	ident, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	ident.LastLoginAt = s.now()
	ident.Normalize()
	if err := s.repo.Update(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ident.Normalize()
	return ident, nil
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ident, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	ident.Normalize()
	return ident, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.Identity, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

// UpgradePlan moves the identity to tier, resetting revenue and plan dates.
func (s *AccountService) UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidInput, tier)
	}
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ident.ApplyPlan(tier, s.now())
	ident.Normalize()
	if err := s.repo.Update(ctx, ident); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Str("plan", string(tier)).Float64("revenue", ident.TotalRevenue).Msg("plan upgraded")
	return ident, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id, name string) (*domain.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ident.DisplayName = name
	ident.Normalize()
	if err := s.repo.Update(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// UpdateStorage sets the absolute storage total. Decreases are allowed;
// negative totals are not.
func (s *AccountService) UpdateStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error) {
	if totalMB < 0 {
		return nil, fmt.Errorf("%w: storage total cannot be negative", domain.ErrInvalidInput)
	}
	ident, err := s.repo.SetStorage(ctx, id, totalMB)
	if err != nil {
		return nil, err
	}
	ident.Normalize()
	return ident, nil
}

// RecordAssessment adds one completed assessment stamped now.
func (s *AccountService) RecordAssessment(ctx context.Context, id string) (*domain.Identity, error) {
	ident, err := s.repo.IncrementAssessments(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	ident.Normalize()
	s.logger.Debug().Str("user_id", id).Int("completed", ident.AssessmentsCompleted).Msg("assessment recorded")
	return ident, nil
}

// Limits reports usage against the identity's quota.
func (s *AccountService) Limits(ctx context.Context, id string) (*ports.UsageLimits, error) {
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	q := ident.Quota()
	return &ports.UsageLimits{
		Plan:                 ident.PlanTier,
		AssessmentsUsed:      ident.AssessmentsCompleted,
		AssessmentsLimit:     q.AssessmentLimit,
		AssessmentsRemaining: q.RemainingAssessments(ident.AssessmentsCompleted),
		StorageUsedMB:        ident.StorageUsedMB,
		StorageLimitMB:       q.StorageLimitMB,
		StorageRemainingMB:   q.RemainingStorageMB(ident.StorageUsedMB),
	}, nil
}
