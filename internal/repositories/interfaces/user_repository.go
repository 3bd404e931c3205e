package interfaces

import (
	"context"

	"safetrack/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Authentication lookups
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Role management. AddRole is idempotent: granting a role the user
	// already holds is a no-op.
	AddRole(ctx context.Context, id primitive.ObjectID, role string) error
}
