package ports

import (
	"context"

	"github.com/plan2protect/platform/internal/core/domain"
)

// BlobStore keeps uploaded images and generated models.
type BlobStore interface {
	// Put stores data under key and returns a reference that can be handed
	// to clients.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SessionStorage persists the serialized session record.
type SessionStorage interface {
	// Load returns nil data and no error when nothing is stored.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// AnalysisEngine turns a floor plan into safety metrics and a 3D model.
type AnalysisEngine interface {
	Analyze(ctx context.Context, img domain.Image) (*domain.AnalysisResult, error)
}
