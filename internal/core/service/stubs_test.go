package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Identity
	findErr error
	listErr error
}

func newStubIdentityRepo(seed ...domain.Identity) *stubIdentityRepo {
	r := &stubIdentityRepo{byID: make(map[string]*domain.Identity)}
	for i := range seed {
		clone := seed[i]
		r.byID[clone.ID] = &clone
	}
	return r
}

func (r *stubIdentityRepo) Insert(_ context.Context, ident *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == ident.Email {
			return domain.ErrUserExists
		}
	}
	clone := *ident
	r.byID[ident.ID] = &clone
	return nil
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) List(_ context.Context) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Identity, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubIdentityRepo) Update(_ context.Context, ident *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ident.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *ident
	r.byID[ident.ID] = &clone
	return nil
}

func (r *stubIdentityRepo) IncrementAssessments(_ context.Context, id string, at time.Time) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.AssessmentsCompleted++
	stamp := at
	u.LastAssessmentAt = &stamp
	clone := *u
	return &clone, nil
}

func (r *stubIdentityRepo) SetStorage(_ context.Context, id string, totalMB float64) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.StorageUsedMB = totalMB
	clone := *u
	return &clone, nil
}

type stubAssessmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Assessment
	insertErr error
	// strictCtx rejects transitions on a done context.
	strictCtx bool
}

func newStubAssessmentRepo() *stubAssessmentRepo {
	return &stubAssessmentRepo{byID: make(map[string]*domain.Assessment)}
}

func (r *stubAssessmentRepo) Insert(_ context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *a
	r.byID[a.ID] = &clone
	return nil
}

func (r *stubAssessmentRepo) FindByID(_ context.Context, id string) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAssessmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAssessmentRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assessment
	for _, a := range r.byID {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubAssessmentRepo) Transition(ctx context.Context, id string, to domain.AssessmentStatus, p ports.AssessmentPatch) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.strictCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAssessmentNotFound
	}
	if !a.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidState
	}
	a.Status = to
	if p.Metrics != nil {
		m := *p.Metrics
		a.SafetyMetrics = &m
	}
	if p.Model3DRef != "" {
		a.Model3DRef = p.Model3DRef
	}
	a.CompletedAt = p.CompletedAt
	clone := *a
	return &clone, nil
}

type stubBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	puts    int
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: make(map[string][]byte)}
}

func (b *stubBlobStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	if b.putErr != nil {
		return "", b.putErr
	}
	b.objects[key] = append([]byte(nil), data...)
	return "blob://" + key, nil
}

func (b *stubBlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

type stubEngine struct {
	result *domain.AnalysisResult
	err    error
	calls  int
}

func (e *stubEngine) Analyze(_ context.Context, _ domain.Image) (*domain.AnalysisResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

type stubQueue struct {
	jobs []ports.AnalysisJob
	full bool
}

func (q *stubQueue) Enqueue(job ports.AnalysisJob) bool {
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

var errBoom = errors.New("boom")
