package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	guideserrors "beroepsbelg/internal/guides/errors"
	"beroepsbelg/pkg/config"
	mongotx "beroepsbelg/pkg/db/mongo"
	"beroepsbelg/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Guides"
	SequenceName   = "guides"
)

type GuideRepository interface {
	Create(ctx context.Context, guide *model.Guide) error
	FindByID(ctx context.Context, id int64) (*model.Guide, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Guide, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Guide, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id int64, guide *model.Guide) error
	Delete(ctx context.Context, id int64) error
	IncrementCancelledTours(ctx context.Context, id int64) error
	IncrementPhotos(ctx context.Context, id int64) error
	IncrementCompletedTours(ctx context.Context, id int64) error
}

type mongoGuideRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sequence   *mongotx.Sequence
}

func NewMongoGuideRepository(cfg *config.Config) GuideRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoGuideRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		sequence:   mongotx.NewSequence(db, SequenceName),
	}
}

func (r *mongoGuideRepository) Create(ctx context.Context, guide *model.Guide) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := r.sequence.Next(ctx)
	if err != nil {
		return err
	}
	guide.ID = id
	guide.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, guide); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return guideserrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create guide: %w", err)
	}
	return nil
}

func (r *mongoGuideRepository) FindByID(ctx context.Context, id int64) (*model.Guide, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var guide model.Guide
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&guide)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guideserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find guide: %w", err)
	}
	return &guide, nil
}

// FindByIDs returns the guides that exist among ids, in no particular order.
func (r *mongoGuideRepository) FindByIDs(ctx context.Context, ids []int64) ([]*model.Guide, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find guides: %w", err)
	}
	defer cursor.Close(ctx)

	var guides []*model.Guide
	if err := cursor.All(ctx, &guides); err != nil {
		return nil, fmt.Errorf("failed to decode guides: %w", err)
	}
	return guides, nil
}

func (r *mongoGuideRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Guide, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find guides: %w", err)
	}
	defer cursor.Close(ctx)

	guides := []*model.Guide{}
	if err := cursor.All(ctx, &guides); err != nil {
		return nil, fmt.Errorf("failed to decode guides: %w", err)
	}
	return guides, nil
}

func (r *mongoGuideRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count guides: %w", err)
	}
	return count, nil
}

func (r *mongoGuideRepository) Update(ctx context.Context, id int64, guide *model.Guide) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":      guide.Name,
			"email":     guide.Email,
			"phone":     guide.Phone,
			"languages": guide.Languages,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return guideserrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update guide: %w", err)
	}
	if result.MatchedCount == 0 {
		return guideserrors.ErrNotFound
	}
	return nil
}

func (r *mongoGuideRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete guide: %w", err)
	}
	if result.DeletedCount == 0 {
		return guideserrors.ErrNotFound
	}
	return nil
}

func (r *mongoGuideRepository) IncrementCancelledTours(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "cancelled_tours")
}

func (r *mongoGuideRepository) IncrementPhotos(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "photos_uploaded")
}

func (r *mongoGuideRepository) IncrementCompletedTours(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "tours_completed")
}

func (r *mongoGuideRepository) increment(ctx context.Context, id int64, field string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return guideserrors.ErrNotFound
	}
	return nil
}
