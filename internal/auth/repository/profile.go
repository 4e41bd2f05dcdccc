package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "beroepsbelg/internal/auth/errors"
	"beroepsbelg/pkg/config"
	mongotx "beroepsbelg/pkg/db/mongo"
	"beroepsbelg/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "profiles"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

type mongoProfileRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoProfileRepository(cfg *config.Config) ProfileRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfileRepository{
		collection: db.Collection(CollectionName),
		timeout:    cfg.ReadTimeout,
	}
}

func (r *mongoProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.timeout)
	defer cancel()

	var profile model.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return &profile, nil
}
