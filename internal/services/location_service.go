package services

import (
	"context"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"
	"safetrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecordLocationRequest struct {
	Latitude    float64             `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude   float64             `json:"longitude" validate:"required,min=-180,max=180"`
	Accuracy    *float64            `json:"accuracy,omitempty"`
	Altitude    *float64            `json:"altitude,omitempty"`
	Type        models.LocationType `json:"type,omitempty"`
	IsEmergency bool                `json:"is_emergency"`
	Message     string              `json:"message,omitempty" validate:"max=500"`
	RecordedAt  *time.Time          `json:"recorded_at,omitempty"`
}

// EmergencyResult reports what an emergency location ping triggered.
type EmergencyResult struct {
	Location         *models.Location `json:"location"`
	ContactsNotified int              `json:"contacts_notified"`
}

type LocationService interface {
	Record(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, req *RecordLocationRequest) (*models.Location, error)
	RecordBatch(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, reqs []*RecordLocationRequest) (int, error)
	TriggerSOS(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, req *RecordLocationRequest) (*EmergencyResult, error)

	Current(ctx context.Context, caller *models.Caller, userID primitive.ObjectID) (*models.Location, error)
	History(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error)
	HistoryRange(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, start, end time.Time) ([]*models.Location, error)
	EmergencyHistory(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error)
	NearbyEmergencies(ctx context.Context, caller *models.Caller, latitude, longitude, radiusKM float64, since time.Time) ([]*models.Location, error)
}

type locationService struct {
	locationRepo interfaces.LocationRepository
	contacts     EmergencyContactService
	logger       *logger.Logger
}

func NewLocationService(locationRepo interfaces.LocationRepository, contacts EmergencyContactService, logger *logger.Logger) LocationService {
	return &locationService{
		locationRepo: locationRepo,
		contacts:     contacts,
		logger:       logger,
	}
}

const maxBatchSize = 100

func (s *locationService) Record(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, req *RecordLocationRequest) (*models.Location, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return nil, err
	}

	location, err := s.buildLocation(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}

	return location, nil
}

func (s *locationService) RecordBatch(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, reqs []*RecordLocationRequest) (int, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return 0, err
	}
	if len(reqs) == 0 {
		return 0, validationError("batch is empty")
	}
	if len(reqs) > maxBatchSize {
		return 0, validationError("batch exceeds %d locations", maxBatchSize)
	}

	locations := make([]*models.Location, 0, len(reqs))
	for _, req := range reqs {
		location, err := s.buildLocation(userID, req)
		if err != nil {
			return 0, err
		}
		locations = append(locations, location)
	}

	if err := s.locationRepo.CreateBatch(ctx, locations); err != nil {
		return 0, err
	}

	return len(locations), nil
}

// TriggerSOS records an emergency location and immediately fans an SOS alert
// out to the user's active contacts. The location is saved first so alerts
// always reference a persisted position.
func (s *locationService) TriggerSOS(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, req *RecordLocationRequest) (*EmergencyResult, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return nil, err
	}

	req.IsEmergency = true
	location, err := s.buildLocation(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}

	s.logger.WithUserID(userID).Warn("SOS triggered")

	notified, err := s.contacts.SendEmergencyNotifications(ctx, caller, userID, AlertSOS, &AlertPayload{
		Latitude:  location.Point.Latitude(),
		Longitude: location.Point.Longitude(),
		Message:   req.Message,
	})
	if err != nil {
		return nil, err
	}

	return &EmergencyResult{
		Location:         location,
		ContactsNotified: notified,
	}, nil
}

func (s *locationService) Current(ctx context.Context, caller *models.Caller, userID primitive.ObjectID) (*models.Location, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return nil, err
	}
	return s.locationRepo.GetMostRecent(ctx, userID)
}

func (s *locationService) History(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return nil, 0, err
	}
	return s.locationRepo.GetByUser(ctx, userID, params)
}

func (s *locationService) HistoryRange(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, start, end time.Time) ([]*models.Location, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, validationError("end of range must be after start")
	}
	return s.locationRepo.GetByUserAndTimeRange(ctx, userID, start, end)
}

func (s *locationService) EmergencyHistory(ctx context.Context, caller *models.Caller, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Location, int64, error) {
	if err := authorizeOwner(caller, userID); err != nil {
		return nil, 0, err
	}
	return s.locationRepo.GetEmergencyByUser(ctx, userID, params)
}

// NearbyEmergencies is an admin view over recent emergency pings in an area.
func (s *locationService) NearbyEmergencies(ctx context.Context, caller *models.Caller, latitude, longitude, radiusKM float64, since time.Time) ([]*models.Location, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if radiusKM <= 0 || radiusKM > 100 {
		return nil, validationError("radius must be between 0 and 100 km")
	}
	return s.locationRepo.GetNearbyEmergencies(ctx, latitude, longitude, radiusKM, since)
}

func (s *locationService) buildLocation(userID primitive.ObjectID, req *RecordLocationRequest) (*models.Location, error) {
	if req.Latitude < -90 || req.Latitude > 90 {
		return nil, validationError("latitude must be between -90 and 90")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return nil, validationError("longitude must be between -180 and 180")
	}

	locType := req.Type
	if locType == "" {
		locType = models.LocationTypeGPS
	}
	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	return &models.Location{
		UserID:      userID,
		Point:       models.NewGeoPoint(req.Latitude, req.Longitude),
		Accuracy:    req.Accuracy,
		Altitude:    req.Altitude,
		Type:        locType,
		IsEmergency: req.IsEmergency,
		Notes:       req.Message,
		RecordedAt:  recordedAt,
	}, nil
}
