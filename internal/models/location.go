package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationType string

const (
	LocationTypeGPS     LocationType = "gps"
	LocationTypeNetwork LocationType = "network"
	LocationTypeManual  LocationType = "manual"
)

// GeoPoint is a GeoJSON point, coordinates ordered longitude then latitude.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
}

func NewGeoPoint(latitude, longitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) >= 2 {
		return p.Coordinates[1]
	}
	return 0
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) >= 1 {
		return p.Coordinates[0]
	}
	return 0
}

type Location struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Point       GeoPoint           `json:"point" bson:"point" validate:"required"`
	Accuracy    *float64           `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Altitude    *float64           `json:"altitude,omitempty" bson:"altitude,omitempty"`
	Type        LocationType       `json:"type" bson:"type"`
	IsEmergency bool               `json:"is_emergency" bson:"is_emergency"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=500"`
	RecordedAt  time.Time          `json:"recorded_at" bson:"recorded_at"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
