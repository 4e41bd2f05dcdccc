// Package mongo prepares the database: collections with their JSON schema
// validators and indexes, normalized legacy booking documents and id counters
// that start above the highest imported id.
package mongo

import (
	"context"
	"fmt"
	"maps"
	"slices"

	authrepo "beroepsbelg/internal/auth/repository"
	bookingsrepo "beroepsbelg/internal/bookings/repository"
	guidesrepo "beroepsbelg/internal/guides/repository"
	"beroepsbelg/internal/migrations/mongo/validators"
	mongotx "beroepsbelg/pkg/db/mongo"
	"beroepsbelg/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// validationLevel "moderate" leaves legacy documents writable until they are normalized.
const validationLevel = "moderate"

var (
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "tour_datetime", Value: 1}}},
		{Keys: bson.D{{Key: "guide_id", Value: 1}, {Key: "tour_datetime", Value: 1}}},
		{Keys: bson.D{{Key: "guide_ids", Value: 1}, {Key: "tour_datetime", Value: 1}}},
		{Keys: bson.D{{Key: "tour_datetime", Value: 1}}},
	}

	GuidesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("guides_email_unique"),
		},
		{Keys: bson.D{{Key: "languages", Value: 1}}},
	}

	ProfilesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "guide_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// sequences pairs each integer-keyed collection with its id counter.
var sequences = map[string]string{
	bookingsrepo.CollectionName: bookingsrepo.SequenceName,
	guidesrepo.CollectionName:   guidesrepo.SequenceName,
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	collections := map[string]collectionDef{
		bookingsrepo.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		guidesrepo.CollectionName: {
			Indexes:   GuidesIndexes,
			Validator: validators.GuideValidator,
		},
		authrepo.CollectionName: {
			Indexes:   ProfilesIndexes,
			Validator: validators.ProfileValidator,
		},
		mongotx.CountersCollection: {},
	}

	for _, name := range slices.Sorted(maps.Keys(collections)) {
		def := collections[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	normalized, err := NormalizeBookings(ctx, db.Collection(bookingsrepo.CollectionName))
	if err != nil {
		return fmt.Errorf("failed to normalize bookings: %w", err)
	}
	log.Info("Normalized booking guide fields", "updated", normalized)

	for _, coll := range slices.Sorted(maps.Keys(sequences)) {
		if err := seedSequence(ctx, db, coll, sequences[coll]); err != nil {
			return fmt.Errorf("failed to seed %s counter: %w", coll, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator).SetValidationLevel(validationLevel)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: validationLevel},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}

// seedSequence moves a counter past the highest id already stored.
func seedSequence(ctx context.Context, db *mongo.Database, collection, sequence string) error {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetProjection(bson.M{"_id": 1})

	var top struct {
		ID int64 `bson:"_id"`
	}
	err := db.Collection(collection).FindOne(ctx, bson.M{}, opts).Decode(&top)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}
	return mongotx.NewSequence(db, sequence).EnsureAtLeast(ctx, top.ID)
}
