package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

const defaultImageName = "floorplan"

type AssessmentService struct {
	repo   ports.AssessmentRepository
	users  ports.IdentityRepository
	blobs  ports.BlobStore
	queue  ports.AnalysisQueue
	logger zerolog.Logger
	now    func() time.Time
}

// NewAssessmentService wires the assessment use cases. queue may be nil, in
// which case analysis is left to the caller.
func NewAssessmentService(
	repo ports.AssessmentRepository,
	users ports.IdentityRepository,
	blobs ports.BlobStore,
	queue ports.AnalysisQueue,
	logger zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		repo:   repo,
		users:  users,
		blobs:  blobs,
		queue:  queue,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create checks the owner's quota, stores the image and inserts a processing
// assessment. Nothing is written when the quota is exhausted.
func (s *AssessmentService) Create(ctx context.Context, in ports.CreateAssessmentInput) (*domain.Assessment, error) {
	if in.OwnerID == "" || len(in.Image.Data) == 0 {
		return nil, fmt.Errorf("%w: owner and image are required", domain.ErrInvalidInput)
	}

	owner, err := s.users.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := owner.CheckQuota(in.Image.SizeMB()); err != nil {
		s.logger.Info().Str("user_id", owner.ID).Str("plan", string(owner.PlanTier)).Msg("assessment rejected by quota")
		return nil, err
	}

	now := s.now()
	name := in.Image.Filename
	if name == "" {
		name = defaultImageName
	}
	key := domain.ImageKey(owner.ID, name, now)
	ref, err := s.blobs.Put(ctx, key, in.Image.Data, in.Image.ContentType)
	if err != nil {
		return nil, fmt.Errorf("create assessment: upload image: %w", err)
	}

	a := &domain.Assessment{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		ImageRef:  ref,
		Status:    domain.StatusProcessing,
		SizeMB:    in.Image.SizeMB(),
		CreatedAt: now,
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned image")
		}
		return nil, fmt.Errorf("create assessment: %w", err)
	}

	s.logger.Info().Str("assessment_id", a.ID).Str("user_id", owner.ID).Float64("size_mb", a.SizeMB).Msg("assessment created")

	if in.Analyze && s.queue != nil {
		job := ports.AnalysisJob{AssessmentID: a.ID, OwnerID: owner.ID, Image: in.Image}
		if !s.queue.Enqueue(job) {
			s.logger.Warn().Str("assessment_id", a.ID).Msg("analysis queue full, leaving assessment for the caller")
		}
	}
	return a, nil
}

func (s *AssessmentService) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AssessmentService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Complete moves a processing assessment to completed with its metrics.
func (s *AssessmentService) Complete(ctx context.Context, id string, metrics domain.SafetyMetrics, modelRef string) (*domain.Assessment, error) {
	now := s.now()
	a, err := s.repo.Transition(ctx, id, domain.StatusCompleted, ports.AssessmentPatch{
		Metrics:     &metrics,
		Model3DRef:  modelRef,
		CompletedAt: &now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			s.logger.Debug().Str("assessment_id", id).Msg("assessment already terminal")
		}
		return nil, err
	}
	s.logger.Info().Str("assessment_id", id).Float64("score", metrics.OverallScore).Msg("assessment completed")
	return a, nil
}

// Fail moves a processing assessment to failed.
func (s *AssessmentService) Fail(ctx context.Context, id string) (*domain.Assessment, error) {
	a, err := s.repo.Transition(ctx, id, domain.StatusFailed, ports.AssessmentPatch{})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("assessment_id", id).Msg("assessment failed")
	return a, nil
}
