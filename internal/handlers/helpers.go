package handlers

import (
	"errors"

	"safetrack/internal/models"
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// callerFromContext reconstructs the authenticated caller placed there by the
// auth middleware.
func callerFromContext(c *gin.Context) (*models.Caller, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return nil, false
	}
	id, ok := userID.(primitive.ObjectID)
	if !ok {
		return nil, false
	}

	var roles []string
	if r, exists := c.Get("roles"); exists {
		roles, _ = r.([]string)
	}

	return &models.Caller{UserID: id, Roles: roles}, true
}

func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondServiceError maps domain errors to HTTP responses. Services never
// choose status codes; this is the single translation point.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "resource")
	case errors.Is(err, services.ErrInvalidToken):
		utils.BadRequestResponse(c, utils.ErrInvalidToken)
	case errors.Is(err, services.ErrValidationFailed):
		utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.ErrorResponse(c, 401, "UNAUTHORIZED", utils.ErrInvalidCredentials)
	default:
		utils.InternalServerErrorResponse(c)
	}
}
