package handler

import "github.com/plan2protect/platform/internal/core/domain"

type createUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Plan  string `json:"plan" validate:"omitempty,plan"`
}

type emailLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type planRequest struct {
	Plan string `json:"plan" validate:"required,plan"`
}

type profileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type storageRequest struct {
	StorageUsed *float64 `json:"storage_used" validate:"required,gte=0"`
}

type limitsResponse struct {
	Plan                 domain.PlanTier `json:"plan"`
	AssessmentsUsed      int             `json:"assessments_used"`
	AssessmentsLimit     int             `json:"assessments_limit"`
	AssessmentsRemaining int             `json:"assessments_remaining"`
	StorageUsed          float64         `json:"storage_used"`
	StorageLimit         int             `json:"storage_limit"`
	StorageRemaining     float64         `json:"storage_remaining"`
}

type checkAdminResponse struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type usersResponse struct {
	Users        []domain.Identity `json:"users"`
	Total        int               `json:"total"`
	AdminCount   int               `json:"admin_count"`
	RegularCount int               `json:"regular_count"`
}

type plansResponse struct {
	Plans []domain.Plan `json:"plans"`
}
