package interfaces

import (
	"context"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmergencyContactRepository persists emergency-contact relationships.
//
// All status transitions out of pending are conditional writes: the filter
// includes the expected current status (and, for token operations, the token
// itself and its freshness), so concurrent verify/decline/cleanup calls
// resolve to exactly one winner and the losers observe ErrNotFound.
type EmergencyContactRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, contact *models.EmergencyContact) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyContact, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Owner queries
	GetByOwner(ctx context.Context, ownerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error)
	GetByOwnerAndStatus(ctx context.Context, ownerID primitive.ObjectID, status models.EmergencyContactStatus) ([]*models.EmergencyContact, error)
	CountByOwnerAndStatus(ctx context.Context, ownerID primitive.ObjectID, status models.EmergencyContactStatus) (int64, error)

	// Reverse queries: relationships designating a given registered user
	GetByContactUser(ctx context.Context, contactUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error)
	CountByContactUserAndStatus(ctx context.Context, contactUserID primitive.ObjectID, status models.EmergencyContactStatus) (int64, error)

	// Duplicate pre-checks. The unique indexes are the source of truth;
	// these exist for early, friendlier failures.
	ExistsByOwnerAndContactUser(ctx context.Context, ownerID, contactUserID primitive.ObjectID) (bool, error)
	ExistsByOwnerAndEmail(ctx context.Context, ownerID primitive.ObjectID, email string) (bool, error)
	ExistsByOwnerAndPhone(ctx context.Context, ownerID primitive.ObjectID, phone string) (bool, error)

	// Token transitions. tokenCutoff is the oldest creation time still
	// considered unexpired; records created at or before it do not match.
	ActivateByToken(ctx context.Context, token string, tokenCutoff time.Time) (*models.EmergencyContact, error)
	DeclineByToken(ctx context.Context, token string, tokenCutoff time.Time) (*models.EmergencyContact, error)

	// ResetToken replaces the verification token of a still-pending contact.
	// Returns ErrNotFound if the contact is no longer pending.
	ResetToken(ctx context.Context, id primitive.ObjectID, token string, createdAt time.Time) error

	// Expiry sweep support. FindExpiredPending lists pending contacts whose
	// token was created at or before the cutoff; MarkExpired transitions a
	// single one, reporting false when a concurrent transition won.
	FindExpiredPending(ctx context.Context, tokenCutoff time.Time) ([]*models.EmergencyContact, error)
	MarkExpired(ctx context.Context, id primitive.ObjectID, tokenCutoff time.Time) (bool, error)
}
