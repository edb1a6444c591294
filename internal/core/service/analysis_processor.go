package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

const (
	modelContentType = "application/json"

	// markFailedTimeout bounds the failure write, which runs detached from a
	// possibly cancelled job context.
	markFailedTimeout = 5 * time.Second
)

type analysisProcessor struct {
	repo   ports.AssessmentRepository
	users  ports.IdentityRepository
	blobs  ports.BlobStore
	engine ports.AnalysisEngine
	log    zerolog.Logger
	now    func() time.Time
}

// NewAnalysisProcessor returns an AnalysisProcessor implementation.
func NewAnalysisProcessor(
	repo ports.AssessmentRepository,
	users ports.IdentityRepository,
	blobs ports.BlobStore,
	engine ports.AnalysisEngine,
	log zerolog.Logger,
) ports.AnalysisProcessor {
	return &analysisProcessor{
		repo:   repo,
		users:  users,
		blobs:  blobs,
		engine: engine,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the engine, stores the model and completes the assessment.
// An engine or upload failure marks the assessment failed.
func (p *analysisProcessor) Process(ctx context.Context, job ports.AnalysisJob) error {
	// 1. Analyze.
	result, err := p.engine.Analyze(ctx, job.Image)
	if err != nil {
		p.markFailed(ctx, job.AssessmentID)
		return fmt.Errorf("process analysis: %w", err)
	}

	// 2. Store the opaque model payload.
	now := p.now()
	modelRef, err := p.blobs.Put(ctx, domain.ModelKey(job.OwnerID, job.AssessmentID, now), result.Model, modelContentType)
	if err != nil {
		p.markFailed(ctx, job.AssessmentID)
		return fmt.Errorf("process analysis: upload model: %w", err)
	}

	// 3. Complete. Losing a race against a manual completion is not an error.
	metrics := result.Metrics
	_, err = p.repo.Transition(ctx, job.AssessmentID, domain.StatusCompleted, ports.AssessmentPatch{
		Metrics:     &metrics,
		Model3DRef:  modelRef,
		CompletedAt: &now,
	})
	if errors.Is(err, domain.ErrInvalidState) {
		p.log.Debug().Str("assessment_id", job.AssessmentID).Msg("assessment already terminal, result dropped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("process analysis: complete: %w", err)
	}

	// 4. Count the completion (non-fatal on failure).
	if _, err := p.users.IncrementAssessments(ctx, job.OwnerID, now); err != nil {
		p.log.Warn().Err(err).Str("user_id", job.OwnerID).Msg("failed to record assessment completion")
	}

	p.log.Info().
		Str("assessment_id", job.AssessmentID).
		Str("user_id", job.OwnerID).
		Float64("score", metrics.OverallScore).
		Int("critical", metrics.CriticalIssues).
		Msg("analysis processed")

	return nil
}

// Abandon marks a job that was never processed as failed. An assessment that
// already reached a terminal state is left alone.
func (p *analysisProcessor) Abandon(ctx context.Context, job ports.AnalysisJob) error {
	_, err := p.repo.Transition(ctx, job.AssessmentID, domain.StatusFailed, ports.AssessmentPatch{})
	if err != nil && !errors.Is(err, domain.ErrInvalidState) {
		return fmt.Errorf("abandon analysis: %w", err)
	}
	p.log.Warn().Str("assessment_id", job.AssessmentID).Msg("analysis abandoned")
	return nil
}

// markFailed writes the failure even when ctx is already cancelled, so a
// shutdown mid-analysis does not leave the assessment processing.
func (p *analysisProcessor) markFailed(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
	defer cancel()
	if _, err := p.repo.Transition(ctx, id, domain.StatusFailed, ports.AssessmentPatch{}); err != nil {
		p.log.Warn().Err(err).Str("assessment_id", id).Msg("failed to mark assessment failed")
	}
}
