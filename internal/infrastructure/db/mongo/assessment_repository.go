package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

type AssessmentRepository struct {
	col *mongo.Collection
}

// NewAssessmentRepository binds the repository to collection, usually
// CollectionAssessments or CollectionAdminAssessments.
func NewAssessmentRepository(db *mongo.Database, collection string) *AssessmentRepository {
	return &AssessmentRepository{col: db.Collection(collection)}
}

func (r *AssessmentRepository) Insert(ctx context.Context, a *domain.Assessment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Assessment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return &a, nil
}

func (r *AssessmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Assessment, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode assessments: %w", err)
	}
	return out, nil
}

// Transition applies the status change with a conditional update so two
// concurrent completions cannot both succeed.
func (r *AssessmentRepository) Transition(ctx context.Context, id string, to domain.AssessmentStatus, patch ports.AssessmentPatch) (*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": to}
	if patch.Metrics != nil {
		set["safety_metrics"] = patch.Metrics
	}
	if patch.Model3DRef != "" {
		set["model_3d_ref"] = patch.Model3DRef
	}
	if patch.CompletedAt != nil {
		set["completed_at"] = patch.CompletedAt.UTC()
	}

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": domain.TransitionSources(to)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a domain.Assessment
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&a)
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition assessment: %w", err)
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("transition assessment: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrAssessmentNotFound
	}
	return nil, fmt.Errorf("transition assessment to %s: %w", to, domain.ErrInvalidState)
}

func (r *AssessmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
