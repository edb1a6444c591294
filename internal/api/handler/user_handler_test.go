package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

type stubAccountService struct {
	registerFn      func(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error)
	loginFn         func(ctx context.Context, email string) (*domain.Identity, error)
	getFn           func(ctx context.Context, id string) (*domain.Identity, error)
	upgradeFn       func(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error)
	updateStorageFn func(ctx context.Context, id string, totalMB float64) (*domain.Identity, error)
	limitsFn        func(ctx context.Context, id string) (*ports.UsageLimits, error)
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Login(ctx context.Context, email string) (*domain.Identity, error) {
	return s.loginFn(ctx, email)
}

func (s *stubAccountService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	return s.getFn(ctx, id)
}

func (s *stubAccountService) GetByEmail(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubAccountService) List(context.Context) ([]domain.Identity, error) { return nil, nil }

func (s *stubAccountService) UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
	return s.upgradeFn(ctx, id, tier)
}

func (s *stubAccountService) UpdateProfile(context.Context, string, string) (*domain.Identity, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubAccountService) UpdateStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error) {
	return s.updateStorageFn(ctx, id, totalMB)
}

func (s *stubAccountService) RecordAssessment(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubAccountService) Limits(ctx context.Context, id string) (*ports.UsageLimits, error) {
	return s.limitsFn(ctx, id)
}

func TestUserHandler_Create_Success(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.Identity, error) {
			if in.Email != "jane@x.com" || in.Plan != domain.PlanMonthly {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Identity{ID: "u1", Email: in.Email, DisplayName: in.Name, PlanTier: in.Plan}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/users/create", `{"name":"Jane","email":"jane@x.com","plan":"monthly"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var got domain.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.ID != "u1" || got.PlanTier != domain.PlanMonthly {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(stub)

	for _, body := range []string{
		`{"email":"jane@x.com"}`,
		`{"name":"Jane","email":"not-an-email"}`,
		`{"name":"Jane","email":"jane@x.com","plan":"platinum"}`,
	} {
		c, _ := newJSONContext(http.MethodPost, "/api/users/create", body)
		if err := h.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", body, err)
		}
	}
}

func TestUserHandler_Create_Duplicate(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewUserHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/users/create", `{"name":"Jane","email":"jane@x.com"}`)
	if err := h.Create(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserHandler_Login_NotFound(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(context.Context, string) (*domain.Identity, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewUserHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/users/login", `{"email":"ghost@x.com"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserHandler_GetByID(t *testing.T) {
	stub := &stubAccountService{
		getFn: func(_ context.Context, id string) (*domain.Identity, error) {
			return &domain.Identity{ID: id}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/api/users/id/u7", "")
	c.SetParamNames("id")
	c.SetParamValues("u7")
	if err := h.GetByID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got domain.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.ID != "u7" {
		t.Fatalf("expected u7, got %q", got.ID)
	}
}

func TestUserHandler_UpgradePlan(t *testing.T) {
	var gotTier domain.PlanTier
	stub := &stubAccountService{
		upgradeFn: func(_ context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
			gotTier = tier
			return &domain.Identity{ID: id, PlanTier: tier}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodPut, "/api/users/u1/plan", `{"plan":"yearly"}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := h.UpgradePlan(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotTier != domain.PlanYearly {
		t.Fatalf("unexpected result: %d %q", rec.Code, gotTier)
	}

	c, _ = newJSONContext(http.MethodPut, "/api/users/u1/plan", `{"plan":"gold"}`)
	if err := h.UpgradePlan(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserHandler_UpdateStorage(t *testing.T) {
	var got float64 = -1
	stub := &stubAccountService{
		updateStorageFn: func(_ context.Context, id string, totalMB float64) (*domain.Identity, error) {
			got = totalMB
			return &domain.Identity{ID: id, StorageUsedMB: totalMB}, nil
		},
	}
	h := NewUserHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/users/u1/update-storage", `{"storage_used":0}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := h.UpdateStorage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != 0 {
		t.Fatalf("zero is a valid total, got %v", got)
	}

	for _, body := range []string{`{}`, `{"storage_used":-3}`} {
		c, _ := newJSONContext(http.MethodPost, "/api/users/u1/update-storage", body)
		if err := h.UpdateStorage(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", body, err)
		}
	}
}

func TestUserHandler_Limits_Unlimited(t *testing.T) {
	stub := &stubAccountService{
		limitsFn: func(context.Context, string) (*ports.UsageLimits, error) {
			return &ports.UsageLimits{
				Plan:                 domain.PlanBundle,
				AssessmentsUsed:      40,
				AssessmentsLimit:     domain.Unlimited,
				AssessmentsRemaining: domain.Unlimited,
				StorageLimitMB:       5000,
				StorageRemainingMB:   5000,
			}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/api/user-limits/u1", "")
	if err := h.Limits(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp limitsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AssessmentsRemaining != -1 || resp.StorageLimit != 5000 {
		t.Fatalf("unexpected limits: %+v", resp)
	}
}

func TestUserHandler_CheckAdmin(t *testing.T) {
	h := NewUserHandler(&stubAccountService{})

	cases := map[string]bool{
		"Orthodox396@gmail.com": true,
		"someone@x.com":         false,
	}
	for email, want := range cases {
		c, rec := newJSONContext(http.MethodGet, "/api/check-admin/"+email, "")
		c.SetParamNames("email")
		c.SetParamValues(email)
		if err := h.CheckAdmin(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp checkAdminResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.IsAdmin != want {
			t.Errorf("%s: is_admin = %v, want %v", email, resp.IsAdmin, want)
		}
	}
}

func TestPlans(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/api/plans", "")
	if err := Plans(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp plansResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Plans) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(resp.Plans))
	}
}
