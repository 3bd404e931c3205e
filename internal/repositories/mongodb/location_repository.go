package mongodb

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type locationRepository struct {
	collection *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) interfaces.LocationRepository {
	return &locationRepository{
		collection: db.Collection("locations"),
	}
}

func (r *locationRepository) Create(ctx context.Context, location *models.Location) error {
	location.ID = primitive.NewObjectID()
	location.CreatedAt = time.Now().UTC()
	if location.RecordedAt.IsZero() {
		location.RecordedAt = location.CreatedAt
	}

	_, err := r.collection.InsertOne(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}

	return nil
}

func (r *locationRepository) CreateBatch(ctx context.Context, locations []*models.Location) error {
	if len(locations) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(locations))
	for i, location := range locations {
		location.ID = primitive.NewObjectID()
		location.CreatedAt = now
		if location.RecordedAt.IsZero() {
			location.RecordedAt = now
		}
		docs[i] = location
	}

	_, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create location batch: %w", err)
	}

	return nil
}

func (r *locationRepository) GetMostRecent(ctx context.Context, userID primitive.ObjectID) (*models.Location, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}})

	var location models.Location
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&location)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get most recent location: %w", err)
	}

	return &location, nil
}

func (r *locationRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, params)
}

func (r *locationRepository) GetByUserAndTimeRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]*models.Location, error) {
	filter := bson.M{
		"user_id":     userID,
		"recorded_at": bson.M{"$gte": start, "$lte": end},
	}

	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer cursor.Close(ctx)

	var locations []*models.Location
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}

	return locations, nil
}

func (r *locationRepository) GetEmergencyByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID, "is_emergency": true}, params)
}

func (r *locationRepository) GetNearbyEmergencies(ctx context.Context, latitude, longitude, radiusKM float64, since time.Time) ([]*models.Location, error) {
	filter := bson.M{
		"is_emergency": true,
		"recorded_at":  bson.M{"$gte": since},
		"point": bson.M{
			"$near": bson.M{
				"$geometry":    models.NewGeoPoint(latitude, longitude),
				"$maxDistance": radiusKM * 1000,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var locations []*models.Location
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}

	return locations, nil
}

func (r *locationRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Location, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count locations: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetFindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list locations: %w", err)
	}
	defer cursor.Close(ctx)

	var locations []*models.Location
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, 0, fmt.Errorf("failed to decode locations: %w", err)
	}

	return locations, total, nil
}
