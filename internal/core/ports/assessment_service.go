package ports

import (
	"context"

	"github.com/plan2protect/platform/internal/core/domain"
)

// CreateAssessmentInput is the DTO for a new upload.
type CreateAssessmentInput struct {
	OwnerID string
	Image   domain.Image
	// Analyze queues server-side analysis when an engine is configured.
	Analyze bool
}

// AssessmentService defines use-case operations on assessments.
type AssessmentService interface {
	Create(ctx context.Context, in CreateAssessmentInput) (*domain.Assessment, error)
	Get(ctx context.Context, id string) (*domain.Assessment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error)
	Complete(ctx context.Context, id string, metrics domain.SafetyMetrics, modelRef string) (*domain.Assessment, error)
	Fail(ctx context.Context, id string) (*domain.Assessment, error)
}

// UserListing is the admin view of all regular identities.
type UserListing struct {
	Users        []domain.Identity
	Total        int
	AdminCount   int
	RegularCount int
}

// AnalyticsService aggregates identities for administrators.
type AnalyticsService interface {
	Overview(ctx context.Context) (*domain.Overview, error)
	Users(ctx context.Context) (*UserListing, error)
}

// AnalysisJob is one queued server-side analysis.
type AnalysisJob struct {
	AssessmentID string
	OwnerID      string
	Image        domain.Image
}

// AnalysisProcessor runs a queued analysis to completion. Abandon marks a
// job that will never run as failed.
type AnalysisProcessor interface {
	Process(ctx context.Context, job AnalysisJob) error
	Abandon(ctx context.Context, job AnalysisJob) error
}

// AnalysisQueue accepts analysis jobs. Enqueue reports false when the queue
// is full or closed.
type AnalysisQueue interface {
	Enqueue(job AnalysisJob) bool
}
