package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// UserBackend is the user side of one backend, as seen by an identity.
type UserBackend interface {
	Get(ctx context.Context, id string) (*domain.Identity, error)
	UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error)
	RecordAssessment(ctx context.Context, id string) (*domain.Identity, error)
	SetStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error)
}

// AssessmentBackend is the assessment side of one backend.
type AssessmentBackend interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error)
	Create(ctx context.Context, ownerID string, img domain.Image) (*domain.Assessment, error)
	Complete(ctx context.Context, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error)
	Fail(ctx context.Context, id string) (*domain.Assessment, error)
}

// RegularAPI is the REST backend as the session core uses it.
// *backend.Client implements it.
type RegularAPI interface {
	CreateUser(ctx context.Context, name, email string, tier domain.PlanTier) (*domain.Identity, error)
	LoginByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetUser(ctx context.Context, id string) (*domain.Identity, error)
	UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error)
	RecordAssessment(ctx context.Context, id string) (*domain.Identity, error)
	UpdateStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error)
	ListUsers(ctx context.Context, token string) ([]domain.Identity, error)
	ListAssessments(ctx context.Context, ownerID string) ([]domain.Assessment, error)
	CreateAssessment(ctx context.Context, ownerID string, img domain.Image) (*domain.Assessment, error)
	CompleteAssessment(ctx context.Context, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error)
	FailAssessment(ctx context.Context, id string) (*domain.Assessment, error)
}

// Account bundles the backends serving one identity.
type Account struct {
	Users       UserBackend
	Assessments AssessmentBackend
}

// Backends holds both implementations and hands out the one matching an
// identity's kind.
type Backends struct {
	admin   Account
	regular Account
}

func NewBackends(api RegularAPI, adminUsers ports.IdentityRepository, adminAssessments ports.AssessmentRepository, blobs ports.BlobStore) *Backends {
	now := func() time.Time { return time.Now().UTC() }
	return &Backends{
		admin: Account{
			Users:       &documentUsers{repo: adminUsers, now: now},
			Assessments: &documentAssessments{repo: adminAssessments, blobs: blobs, now: now},
		},
		regular: Account{
			Users:       restUsers{api: api},
			Assessments: restAssessments{api: api},
		},
	}
}

// For selects the backends of ident. The kind of an identity never changes.
func (b *Backends) For(ident domain.Identity) Account {
	if ident.Kind() == domain.KindAdministrator {
		return b.admin
	}
	return b.regular
}

// ---------------------------------------------------------------------------
// Administrator backends: document store + blob store
// ---------------------------------------------------------------------------

type documentUsers struct {
	repo ports.IdentityRepository
	now  func() time.Time
}

func (u *documentUsers) Get(ctx context.Context, id string) (*domain.Identity, error) {
	return u.repo.FindByID(ctx, id)
}

func (u *documentUsers) UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidInput, tier)
	}
	ident, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ident.ApplyPlan(tier, u.now())
	if err := u.repo.Update(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

func (u *documentUsers) RecordAssessment(ctx context.Context, id string) (*domain.Identity, error) {
	return u.repo.IncrementAssessments(ctx, id, u.now())
}

func (u *documentUsers) SetStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error) {
	if totalMB < 0 {
		return nil, fmt.Errorf("%w: storage total cannot be negative", domain.ErrInvalidInput)
	}
	return u.repo.SetStorage(ctx, id, totalMB)
}

type documentAssessments struct {
	repo  ports.AssessmentRepository
	blobs ports.BlobStore
	now   func() time.Time
}

func (a *documentAssessments) ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	return a.repo.ListByOwner(ctx, ownerID)
}

func (a *documentAssessments) Create(ctx context.Context, ownerID string, img domain.Image) (*domain.Assessment, error) {
	now := a.now()
	name := img.Filename
	if name == "" {
		name = "floorplan"
	}
	key := domain.ImageKey(ownerID, name, now)
	ref, err := a.blobs.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	out := &domain.Assessment{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ImageRef:  ref,
		Status:    domain.StatusProcessing,
		SizeMB:    img.SizeMB(),
		CreatedAt: now,
	}
	if err := a.repo.Insert(ctx, out); err != nil {
		// The image has no owner record now, so drop it. A failed delete
		// leaves an orphan but must not mask the insert error.
		_ = a.blobs.Delete(ctx, key)
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return out, nil
}

func (a *documentAssessments) Complete(ctx context.Context, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error) {
	now := a.now()
	return a.repo.Transition(ctx, id, domain.StatusCompleted, ports.AssessmentPatch{
		Metrics:     &m,
		Model3DRef:  modelRef,
		CompletedAt: &now,
	})
}

func (a *documentAssessments) Fail(ctx context.Context, id string) (*domain.Assessment, error) {
	return a.repo.Transition(ctx, id, domain.StatusFailed, ports.AssessmentPatch{})
}

// ---------------------------------------------------------------------------
// Regular backends: REST service
// ---------------------------------------------------------------------------

type restUsers struct{ api RegularAPI }

func (u restUsers) Get(ctx context.Context, id string) (*domain.Identity, error) {
	return u.api.GetUser(ctx, id)
}

func (u restUsers) UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
	return u.api.UpgradePlan(ctx, id, tier)
}

func (u restUsers) RecordAssessment(ctx context.Context, id string) (*domain.Identity, error) {
	return u.api.RecordAssessment(ctx, id)
}

func (u restUsers) SetStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error) {
	return u.api.UpdateStorage(ctx, id, totalMB)
}

type restAssessments struct{ api RegularAPI }

func (a restAssessments) ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	return a.api.ListAssessments(ctx, ownerID)
}

func (a restAssessments) Create(ctx context.Context, ownerID string, img domain.Image) (*domain.Assessment, error) {
	return a.api.CreateAssessment(ctx, ownerID, img)
}

func (a restAssessments) Complete(ctx context.Context, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error) {
	return a.api.CompleteAssessment(ctx, id, m, modelRef)
}

func (a restAssessments) Fail(ctx context.Context, id string) (*domain.Assessment, error) {
	return a.api.FailAssessment(ctx, id)
}
