package handler

import "github.com/plan2protect/platform/internal/core/domain"

// maxImageBytes bounds a single floor-plan upload.
const maxImageBytes = 20 << 20

type completeRequest struct {
	SafetyMetrics *domain.SafetyMetrics `json:"safety_metrics" validate:"required"`
	Model3DURL    string                `json:"model_3d_url"`
}

type assessmentsResponse struct {
	Assessments []domain.Assessment `json:"assessments"`
}
