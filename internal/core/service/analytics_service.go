package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// AnalyticsService aggregates the identity catalogue for administrators.
type AnalyticsService struct {
	users  ports.IdentityRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAnalyticsService(users ports.IdentityRepository, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AnalyticsService) Overview(ctx context.Context) (*domain.Overview, error) {
	users, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	o := domain.Summarize(users, s.now())
	return &o, nil
}

func (s *AnalyticsService) Users(ctx context.Context) (*ports.UserListing, error) {
	users, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	out := &ports.UserListing{Users: users, Total: len(users)}
	for _, u := range users {
		if u.IsAdministrator {
			out.AdminCount++
		} else {
			out.RegularCount++
		}
	}
	return out, nil
}

func (s *AnalyticsService) list(ctx context.Context) ([]domain.Identity, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users for analytics")
		return nil, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}
