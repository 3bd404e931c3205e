package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
	UserStatusLocked   UserStatus = "locked"
)

// Roles carried on a user account. RoleEmergencyContact is granted when a
// registered user accepts an emergency-contact invitation.
const (
	RoleUser             = "user"
	RoleAdmin            = "admin"
	RoleEmergencyContact = "emergency_contact"
)

type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username" validate:"required,min=3,max=50"`
	Email     string             `json:"email" bson:"email" validate:"required,email"`
	Password  string             `json:"-" bson:"password"`
	FirstName string             `json:"first_name" bson:"first_name" validate:"max=50"`
	LastName  string             `json:"last_name" bson:"last_name" validate:"max=50"`
	Status    UserStatus         `json:"status" bson:"status"`
	Roles     []string           `json:"roles" bson:"roles"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Caller is the authenticated identity performing an operation. Services take
// it as an explicit parameter instead of reading ambient request state.
type Caller struct {
	UserID primitive.ObjectID
	Roles  []string
}

func (c *Caller) IsAdmin() bool {
	for _, r := range c.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
