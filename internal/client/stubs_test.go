package client

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

const adminEmail = "orthodox396@gmail.com"

var errBoom = errors.New("boom")

// ---------------------------------------------------------------------------
// Session storage
// ---------------------------------------------------------------------------

type memSessionStorage struct {
	mu      sync.Mutex
	data    []byte
	saveErr error
	deletes int
}

func (m *memSessionStorage) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), nil
}

func (m *memSessionStorage) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memSessionStorage) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.data = nil
	return nil
}

// ---------------------------------------------------------------------------
// Identity provider
// ---------------------------------------------------------------------------

type stubProvider struct {
	calls      int
	signInErr  error
	signUpErr  error
	signOutErr error
	subject    string
	revoked    []string
}

func (p *stubProvider) SignUp(_ context.Context, _, _, _ string) (*domain.Session, error) {
	p.calls++
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	return &domain.Session{Subject: p.subject, Token: "tok-" + p.subject}, nil
}

func (p *stubProvider) SignIn(_ context.Context, _, _ string) (*domain.Session, error) {
	p.calls++
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	return &domain.Session{Subject: p.subject, Token: "tok-" + p.subject}, nil
}

func (p *stubProvider) SignOut(_ context.Context, token string) error {
	p.calls++
	p.revoked = append(p.revoked, token)
	return p.signOutErr
}

func (p *stubProvider) Verify(context.Context, string) (*ports.TokenClaims, error) {
	return nil, domain.ErrInvalidToken
}

// ---------------------------------------------------------------------------
// Document store
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Identity
	err  error
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
	if r.err != nil {
		return nil, r.err
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
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) List(context.Context) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
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

func (r *stubAssessmentRepo) Transition(_ context.Context, id string, to domain.AssessmentStatus, p ports.AssessmentPatch) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	// stall makes Analyze wait for ctx or this long, whichever ends first.
	stall time.Duration
}

func (e *stubEngine) Analyze(ctx context.Context, _ domain.Image) (*domain.AnalysisResult, error) {
	e.calls++
	if e.stall > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.stall):
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

// ---------------------------------------------------------------------------
// REST backend
// ---------------------------------------------------------------------------

// stubAPI is an in-memory regular backend. beforeReply, when set, runs just
// before a user mutation replies, so tests can interleave session changes.
type stubAPI struct {
	mu          sync.Mutex
	users       map[string]*domain.Identity
	assessments map[string]*domain.Assessment
	seq         int
	err         error
	calls       int
	lastToken   string
	beforeReply func()
}

func newStubAPI(seed ...domain.Identity) *stubAPI {
	api := &stubAPI{users: make(map[string]*domain.Identity), assessments: make(map[string]*domain.Assessment)}
	for i := range seed {
		clone := seed[i]
		api.users[clone.ID] = &clone
	}
	return api
}

func (s *stubAPI) begin() error {
	s.mu.Lock()
	s.calls++
	return s.err
}

func (s *stubAPI) reply(u *domain.Identity) (*domain.Identity, error) {
	clone := *u
	hook := s.beforeReply
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &clone, nil
}

func (s *stubAPI) CreateUser(_ context.Context, name, email string, tier domain.PlanTier) (*domain.Identity, error) {
	if err := s.begin(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for _, u := range s.users {
		if u.Email == email {
			s.mu.Unlock()
			return nil, &domain.RequestFailedError{Status: 409, Detail: "User already exists", Code: "user_exists"}
		}
	}
	s.seq++
	u := domain.NewIdentity("reg-"+strconv.Itoa(s.seq), name, email, time.Now().UTC())
	u.ApplyPlan(tier, time.Now().UTC())
	s.users[u.ID] = &u
	return s.reply(&u)
}

func (s *stubAPI) LoginByEmail(_ context.Context, email string) (*domain.Identity, error) {
	if err := s.begin(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for _, u := range s.users {
		if u.Email == email {
			return s.reply(u)
		}
	}
	s.mu.Unlock()
	return nil, &domain.RequestFailedError{Status: 404, Detail: "User not found", Code: "not_found"}
}

func (s *stubAPI) mutate(id string, fn func(u *domain.Identity)) (*domain.Identity, error) {
	if err := s.begin(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return nil, &domain.RequestFailedError{Status: 404, Detail: "User not found", Code: "not_found"}
	}
	fn(u)
	return s.reply(u)
}

func (s *stubAPI) GetUser(_ context.Context, id string) (*domain.Identity, error) {
	return s.mutate(id, func(*domain.Identity) {})
}

func (s *stubAPI) UpgradePlan(_ context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
	return s.mutate(id, func(u *domain.Identity) { u.ApplyPlan(tier, time.Now().UTC()) })
}

func (s *stubAPI) RecordAssessment(_ context.Context, id string) (*domain.Identity, error) {
	return s.mutate(id, func(u *domain.Identity) {
		now := time.Now().UTC()
		u.AssessmentsCompleted++
		u.LastAssessmentAt = &now
	})
}

func (s *stubAPI) UpdateStorage(_ context.Context, id string, totalMB float64) (*domain.Identity, error) {
	return s.mutate(id, func(u *domain.Identity) { u.StorageUsedMB = totalMB })
}

func (s *stubAPI) ListUsers(_ context.Context, token string) ([]domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastToken = token
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Identity, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubAPI) ListAssessments(_ context.Context, ownerID string) ([]domain.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var out []domain.Assessment
	for _, a := range s.assessments {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *stubAPI) CreateAssessment(_ context.Context, ownerID string, img domain.Image) (*domain.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	s.seq++
	a := &domain.Assessment{
		ID:        "as-" + strconv.Itoa(s.seq),
		OwnerID:   ownerID,
		ImageRef:  "remote://" + img.Filename,
		Status:    domain.StatusProcessing,
		SizeMB:    img.SizeMB(),
		CreatedAt: time.Now().UTC(),
	}
	s.assessments[a.ID] = a
	clone := *a
	return &clone, nil
}

func (s *stubAPI) transition(id string, to domain.AssessmentStatus, fn func(a *domain.Assessment)) (*domain.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	a, ok := s.assessments[id]
	if !ok {
		return nil, &domain.RequestFailedError{Status: 404, Detail: "Assessment not found", Code: "not_found"}
	}
	if !a.Status.CanTransitionTo(to) {
		return nil, &domain.RequestFailedError{Status: 409, Detail: "invalid status transition", Code: "invalid_state"}
	}
	a.Status = to
	fn(a)
	clone := *a
	return &clone, nil
}

func (s *stubAPI) CompleteAssessment(_ context.Context, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error) {
	return s.transition(id, domain.StatusCompleted, func(a *domain.Assessment) {
		a.SafetyMetrics = &m
		a.Model3DRef = modelRef
	})
}

func (s *stubAPI) FailAssessment(_ context.Context, id string) (*domain.Assessment, error) {
	return s.transition(id, domain.StatusFailed, func(*domain.Assessment) {})
}

// ---------------------------------------------------------------------------
// Fixture wiring every component over the stubs
// ---------------------------------------------------------------------------

type fixture struct {
	storage          *memSessionStorage
	store            *Store
	idp              *stubProvider
	admins           *stubIdentityRepo
	adminAssessments *stubAssessmentRepo
	blobs            *stubBlobStore
	engine           *stubEngine
	api              *stubAPI
	backends         *Backends
	gateway          *Gateway
	usage            *UsageTracker
	catalog          *Catalog
	analytics        *Analytics
}

func newFixture(regular ...domain.Identity) *fixture {
	log := zerolog.Nop()
	f := &fixture{
		storage:          &memSessionStorage{},
		idp:              &stubProvider{subject: "adm-1"},
		admins:           newStubIdentityRepo(),
		adminAssessments: newStubAssessmentRepo(),
		blobs:            newStubBlobStore(),
		engine: &stubEngine{result: &domain.AnalysisResult{
			Metrics: domain.SafetyMetrics{OverallScore: 82, CriticalIssues: 1, MediumIssues: 2, RecommendationCount: 5},
			Model:   []byte(`{"walls":[]}`),
		}},
		api: newStubAPI(regular...),
	}
	f.store = NewStore(f.storage, log)
	f.backends = NewBackends(f.api, f.admins, f.adminAssessments, f.blobs)
	f.gateway = NewGateway(f.store, f.idp, f.admins, f.api, f.backends, time.Second, log)
	f.usage = NewUsageTracker(f.store, f.backends, time.Second, log)
	f.catalog = NewCatalog(f.store, f.backends, f.usage, f.blobs, f.engine, time.Second, log)
	f.analytics = NewAnalytics(f.store, f.api, f.admins, time.Second, log)
	return f
}

func floorPlan(size int) domain.Image {
	return domain.Image{Filename: "plan.png", ContentType: "image/png", Data: make([]byte, size)}
}
