package handlers

import (
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new user account
func (h *AuthHandler) Register(c *gin.Context) {
	var request services.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Account created successfully", response)
}

// Login authenticates a user and issues an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var request services.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged in successfully", response)
}

// Me returns the profile of the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), caller.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved", user)
}
