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
)

// IdentityRepository implements ports.IdentityRepository over one collection.
type IdentityRepository struct {
	col *mongo.Collection
}

// NewIdentityRepository binds the repository to collection, usually
// CollectionUsers or CollectionAdminUsers.
func NewIdentityRepository(db *mongo.Database, collection string) *IdentityRepository {
	return &IdentityRepository{col: db.Collection(collection)}
}

func (r *IdentityRepository) Insert(ctx context.Context, ident *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, ident); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ident domain.Identity
	if err := r.col.FindOne(ctx, filter).Decode(&ident); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &ident, nil
}

// List returns every identity, newest first.
func (r *IdentityRepository) List(ctx context.Context) ([]domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer cur.Close(ctx)

	users := make([]domain.Identity, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode identities: %w", err)
	}
	return users, nil
}

func (r *IdentityRepository) Update(ctx context.Context, ident *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": ident.ID}, ident)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *IdentityRepository) IncrementAssessments(ctx context.Context, id string, at time.Time) (*domain.Identity, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$inc": bson.M{"assessments_completed": 1},
		"$set": bson.M{"last_assessment_at": at.UTC()},
	})
}

func (r *IdentityRepository) SetStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$set": bson.M{"storage_used_mb": totalMB}})
}

func (r *IdentityRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ident domain.Identity
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&ident); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update identity: %w", err)
	}
	return &ident, nil
}

// EnsureIndexes makes email unique and speeds up the analytics sort.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
