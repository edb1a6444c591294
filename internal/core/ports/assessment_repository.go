package ports

import (
	"context"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

// AssessmentPatch carries the fields written together with a status change.
type AssessmentPatch struct {
	Metrics     *domain.SafetyMetrics
	Model3DRef  string
	CompletedAt *time.Time
}

// AssessmentRepository persists assessments.
type AssessmentRepository interface {
	Insert(ctx context.Context, a *domain.Assessment) error
	FindByID(ctx context.Context, id string) (*domain.Assessment, error)
	// ListByOwner returns the owner's assessments, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error)
	// Transition atomically moves an assessment to status when its current
	// status allows it. It returns domain.ErrAssessmentNotFound for unknown
	// ids and domain.ErrInvalidState when the stored status forbids the move.
	Transition(ctx context.Context, id string, to domain.AssessmentStatus, patch AssessmentPatch) (*domain.Assessment, error)
}
