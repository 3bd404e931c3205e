package services

import (
	"safetrack/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// authorizeOwner allows the operation iff the caller is the resource owner or
// an admin. It is a pure function of its inputs; callers pass identity
// explicitly rather than reading it from ambient request state.
func authorizeOwner(caller *models.Caller, ownerID primitive.ObjectID) error {
	if caller == nil {
		return ErrForbidden
	}
	if caller.IsAdmin() || caller.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}

// authorizeContactAccess additionally allows the designated contact user to
// read a relationship that names them.
func authorizeContactAccess(caller *models.Caller, contact *models.EmergencyContact) error {
	if caller == nil {
		return ErrForbidden
	}
	if caller.IsAdmin() || caller.UserID == contact.UserID {
		return nil
	}
	if contact.ContactUserID != nil && caller.UserID == *contact.ContactUserID {
		return nil
	}
	return ErrForbidden
}
