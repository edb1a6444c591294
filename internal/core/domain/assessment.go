package domain

import (
	"fmt"
	"path"
	"time"
)

// AssessmentStatus represents the lifecycle state of an assessment.
type AssessmentStatus string

const (
	StatusProcessing AssessmentStatus = "processing"
	StatusCompleted  AssessmentStatus = "completed"
	StatusFailed     AssessmentStatus = "failed"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[AssessmentStatus][]AssessmentStatus{
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s AssessmentStatus) CanTransitionTo(next AssessmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources lists the statuses from which next can be reached.
func TransitionSources(next AssessmentStatus) []AssessmentStatus {
	var out []AssessmentStatus
	for from := range validTransitions {
		if from.CanTransitionTo(next) {
			out = append(out, from)
		}
	}
	return out
}

// Terminal reports whether no further transition is possible.
func (s AssessmentStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// SafetyMetrics are the four scalars the core reads from an analysis.
type SafetyMetrics struct {
	OverallScore        float64 `json:"overall_score" bson:"overall_score"`
	CriticalIssues      int     `json:"critical_issues" bson:"critical_issues"`
	MediumIssues        int     `json:"medium_issues" bson:"medium_issues"`
	RecommendationCount int     `json:"recommendations" bson:"recommendations"`
}

// Assessment is one upload-and-analyze unit owned by a single identity.
type Assessment struct {
	ID            string           `json:"id" bson:"_id"`
	OwnerID       string           `json:"user_id" bson:"owner_id"`
	ImageRef      string           `json:"image_url" bson:"image_ref"`
	Model3DRef    string           `json:"model_3d_url,omitempty" bson:"model_3d_ref,omitempty"`
	Status        AssessmentStatus `json:"status" bson:"status"`
	SafetyMetrics *SafetyMetrics   `json:"safety_metrics,omitempty" bson:"safety_metrics,omitempty"`
	SizeMB        float64          `json:"size_mb" bson:"size_mb"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Image is an uploaded floor plan.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

const bytesPerMB = 1024 * 1024

// SizeMB converts the payload length to megabytes.
func (img Image) SizeMB() float64 {
	return BytesToMB(int64(len(img.Data)))
}

// BytesToMB converts a byte count to megabytes.
func BytesToMB(n int64) float64 {
	return float64(n) / bytesPerMB
}

// AnalysisResult is what the external engine returns. Model is kept opaque.
type AnalysisResult struct {
	Metrics SafetyMetrics
	Model   []byte
}

// ImageKey is the blob key of an uploaded floor plan.
func ImageKey(ownerID, filename string, at time.Time) string {
	return fmt.Sprintf("%s/images/%d_%s", ownerID, at.UnixMilli(), path.Base(filename))
}

// ModelKey is the blob key of a generated 3D model.
func ModelKey(ownerID, assessmentID string, at time.Time) string {
	return fmt.Sprintf("%s/models/%s_%d.json", ownerID, assessmentID, at.UnixMilli())
}
