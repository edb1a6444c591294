package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

const modelContentType = "application/json"

// Catalog manages the assessments of an identity. It reads the session but
// never writes it; counter changes go through the UsageTracker.
type Catalog struct {
	view     View
	backends *Backends
	usage    *UsageTracker
	blobs    ports.BlobStore
	engine   ports.AnalysisEngine
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	// analysisTimeout bounds one engine call, which runs far longer than a
	// plain request.
	analysisTimeout time.Duration
}

// NewCatalog builds a catalog. engine may be nil, in which case Analyze and
// Submit are unavailable.
func NewCatalog(view View, backends *Backends, usage *UsageTracker, blobs ports.BlobStore, engine ports.AnalysisEngine, timeout time.Duration, log zerolog.Logger) *Catalog {
	return &Catalog{
		view:     view,
		backends: backends,
		usage:    usage,
		blobs:    blobs,
		engine:   engine,
		timeout:  timeout,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },

		analysisTimeout: timeout,
	}
}

// SetAnalysisTimeout overrides the engine call limit, which defaults to the
// request timeout.
func (c *Catalog) SetAnalysisTimeout(d time.Duration) {
	if d > 0 {
		c.analysisTimeout = d
	}
}

// authorize allows the signed-in identity to act on its own assessments and
// administrators to act on anyone's.
func (c *Catalog) authorize(ident domain.Identity) error {
	cur, ok := c.view.Current()
	if !ok {
		return errNotSignedIn
	}
	if cur.ID != ident.ID && !cur.IsAdministrator {
		return domain.ErrForbidden
	}
	return nil
}

// ListFor returns ident's assessments, newest first.
func (c *Catalog) ListFor(ctx context.Context, ident domain.Identity) ([]domain.Assessment, error) {
	if err := c.authorize(ident); err != nil {
		return nil, err
	}

	ctx, cancel := callContext(ctx, c.timeout)
	defer cancel()
	return c.backends.For(ident).Assessments.ListByOwner(ctx, ident.ID)
}

// Create stores img and opens a processing assessment for ident. Quota is
// checked before anything is uploaded.
func (c *Catalog) Create(ctx context.Context, ident domain.Identity, img domain.Image) (*domain.Assessment, error) {
	if err := c.authorize(ident); err != nil {
		return nil, err
	}
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	if err := ident.CheckQuota(img.SizeMB()); err != nil {
		c.log.Info().Str("user_id", ident.ID).Str("plan", string(ident.PlanTier)).Err(err).Msg("assessment rejected by quota")
		return nil, err
	}

	callCtx, cancel := callContext(ctx, c.timeout)
	a, err := c.backends.For(ident).Assessments.Create(callCtx, ident.ID, img)
	cancel()
	if err != nil {
		c.log.Error().Err(err).Str("user_id", ident.ID).Msg("failed to create assessment")
		return nil, err
	}

	c.usage.RecordStorageUsage(ctx, ident, ident.StorageUsedMB+a.SizeMB)
	c.log.Info().Str("assessment_id", a.ID).Str("user_id", ident.ID).Msg("assessment created")
	return a, nil
}

// Complete moves a processing assessment to completed.
func (c *Catalog) Complete(ctx context.Context, ident domain.Identity, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error) {
	if err := c.authorize(ident); err != nil {
		return nil, err
	}

	ctx, cancel := callContext(ctx, c.timeout)
	defer cancel()
	return c.backends.For(ident).Assessments.Complete(ctx, id, m, modelRef)
}

// Fail moves a processing assessment to failed.
func (c *Catalog) Fail(ctx context.Context, ident domain.Identity, id string) (*domain.Assessment, error) {
	if err := c.authorize(ident); err != nil {
		return nil, err
	}

	ctx, cancel := callContext(ctx, c.timeout)
	defer cancel()
	return c.backends.For(ident).Assessments.Fail(ctx, id)
}

// Analyze runs the analysis engine on img, stores the 3D model, completes a
// and records the completion against ident. An engine or upload failure
// marks a as failed.
func (c *Catalog) Analyze(ctx context.Context, ident domain.Identity, a *domain.Assessment, img domain.Image) (*domain.Assessment, error) {
	if c.engine == nil {
		return nil, fmt.Errorf("%w: analysis engine not configured", domain.ErrInvalidInput)
	}
	if err := c.authorize(ident); err != nil {
		return nil, err
	}

	log := c.log.With().Str("assessment_id", a.ID).Str("user_id", ident.ID).Logger()

	engineCtx, cancelEngine := callContext(ctx, c.analysisTimeout)
	res, err := c.engine.Analyze(engineCtx, img)
	cancelEngine()
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		c.markFailed(ctx, ident, a.ID, log)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	putCtx, cancel := callContext(ctx, c.timeout)
	modelRef, err := c.blobs.Put(putCtx, domain.ModelKey(a.OwnerID, a.ID, c.now()), res.Model, modelContentType)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("failed to upload 3D model")
		c.markFailed(ctx, ident, a.ID, log)
		return nil, fmt.Errorf("upload model: %w", err)
	}

	done, err := c.Complete(ctx, ident, a.ID, res.Metrics, modelRef)
	if err != nil {
		log.Error().Err(err).Msg("failed to complete assessment")
		return nil, err
	}

	c.usage.RecordAssessmentCompletion(ctx, ident)
	log.Info().Float64("overall_score", res.Metrics.OverallScore).Msg("assessment completed")
	return done, nil
}

// Submit creates an assessment for img and analyzes it.
func (c *Catalog) Submit(ctx context.Context, ident domain.Identity, img domain.Image) (*domain.Assessment, error) {
	if c.engine == nil {
		return nil, fmt.Errorf("%w: analysis engine not configured", domain.ErrInvalidInput)
	}
	a, err := c.Create(ctx, ident, img)
	if err != nil {
		return nil, err
	}
	return c.Analyze(ctx, ident, a, img)
}

func (c *Catalog) markFailed(ctx context.Context, ident domain.Identity, id string, log zerolog.Logger) {
	if _, err := c.Fail(ctx, ident, id); err != nil {
		log.Warn().Err(err).Msg("failed to mark assessment as failed")
	}
}
