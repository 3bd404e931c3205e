package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. The partial
// unique indexes on emergency_contacts are the authoritative guard against
// duplicate relationships; the services' existence pre-checks only produce
// earlier, friendlier errors for the common case.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	contacts := db.Collection("emergency_contacts")
	_, err = contacts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "contact_user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"contact_user_id": bson.M{"$exists": true}},
			),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"email": bson.M{"$exists": true}},
			),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"phone": bson.M{"$exists": true}},
			),
		},
		{
			Keys: bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(
				bson.M{"verification_token": bson.M{"$exists": true}},
			),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create emergency contact indexes: %w", err)
	}

	locations := db.Collection("locations")
	_, err = locations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "recorded_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "point", Value: "2dsphere"}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create location indexes: %w", err)
	}

	return nil
}
