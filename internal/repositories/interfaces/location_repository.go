package interfaces

import (
	"context"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationRepository interface {
	Create(ctx context.Context, location *models.Location) error
	CreateBatch(ctx context.Context, locations []*models.Location) error

	GetMostRecent(ctx context.Context, userID primitive.ObjectID) (*models.Location, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error)
	GetByUserAndTimeRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]*models.Location, error)
	GetEmergencyByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error)

	GetNearbyEmergencies(ctx context.Context, latitude, longitude, radiusKM float64, since time.Time) ([]*models.Location, error)
}
