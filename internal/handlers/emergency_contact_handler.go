package handlers

import (
	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyContactHandler struct {
	contactService services.EmergencyContactService
}

func NewEmergencyContactHandler(contactService services.EmergencyContactService) *EmergencyContactHandler {
	return &EmergencyContactHandler{
		contactService: contactService,
	}
}

type addContactRequest struct {
	services.AddContactRequest
	ContactUserID string `json:"contact_user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type sendAlertRequest struct {
	Kind      string  `json:"kind"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Message   string  `json:"message,omitempty"`
}

// AddContact creates a new emergency contact for a user
func (h *EmergencyContactHandler) AddContact(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	ownerID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	var request addContactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	var ref services.ContactRef
	if request.ContactUserID != "" {
		contactUserID, err := primitive.ObjectIDFromHex(request.ContactUserID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid contact user ID")
			return
		}
		ref = services.PlatformContactRef(contactUserID)
	} else {
		ref = services.ExternalContactRef(request.Email, request.Phone)
	}

	contact, err := h.contactService.AddContact(c.Request.Context(), caller, ownerID, ref, &request.AddContactRequest)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Emergency contact created, verification sent", contact)
}

// GetContact retrieves a single emergency contact
func (h *EmergencyContactHandler) GetContact(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	contactID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.GetContact(c.Request.Context(), caller, contactID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency contact retrieved", contact)
}

// ListContacts lists a user's emergency contacts with pagination
func (h *EmergencyContactHandler) ListContacts(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	ownerID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	contacts, total, err := h.contactService.ListContacts(c.Request.Context(), caller, ownerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Emergency contacts retrieved", contacts, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}

// ListActiveContacts lists only the active emergency contacts
func (h *EmergencyContactHandler) ListActiveContacts(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	ownerID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	contacts, err := h.contactService.ListActiveContacts(c.Request.Context(), caller, ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Active emergency contacts retrieved", contacts, &utils.Meta{
		Count: len(contacts),
	})
}

// ListDesignatingContacts lists relationships where the user is the contact
func (h *EmergencyContactHandler) ListDesignatingContacts(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	contactUserID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	contacts, total, err := h.contactService.GetDesignatingContacts(c.Request.Context(), caller, contactUserID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Designating contacts retrieved", contacts, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}

// VerifyContact consumes a verification token from an email link
func (h *EmergencyContactHandler) VerifyContact(c *gin.Context) {
	contact, err := h.contactService.VerifyContact(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency contact verified", contact)
}

// DeclineContact consumes a decline token from an email link
func (h *EmergencyContactHandler) DeclineContact(c *gin.Context) {
	contact, err := h.contactService.DeclineContact(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency contact invitation declined", contact)
}

// ResendVerification reissues the verification token for a pending contact
func (h *EmergencyContactHandler) ResendVerification(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	contactID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.contactService.ResendVerification(c.Request.Context(), caller, contactID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Verification email resent", nil)
}

// UpdateContact applies a partial update to an emergency contact
func (h *EmergencyContactHandler) UpdateContact(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	contactID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var request services.UpdateContactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	contact, err := h.contactService.UpdateContact(c.Request.Context(), caller, contactID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency contact updated", contact)
}

// RemoveContact deletes an emergency contact relationship
func (h *EmergencyContactHandler) RemoveContact(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	contactID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.contactService.RemoveContact(c.Request.Context(), caller, contactID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// CheckPendingContacts reports pending invitations involving the user
func (h *EmergencyContactHandler) CheckPendingContacts(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	ownerID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	summary, err := h.contactService.CheckPendingContacts(c.Request.Context(), caller, ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Pending contacts summary", summary)
}

// SendAlert fans an alert out to the user's active emergency contacts
func (h *EmergencyContactHandler) SendAlert(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	ownerID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	var request sendAlertRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	kind := services.AlertKind(request.Kind)
	if request.Kind == "" {
		kind = services.AlertSOS
	}

	notified, err := h.contactService.SendEmergencyNotifications(c.Request.Context(), caller, ownerID, kind, &services.AlertPayload{
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		Message:   request.Message,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Alert sent", gin.H{"contacts_notified": notified})
}

// CleanupExpiredTokens runs the expiry sweep on demand (admin only)
func (h *EmergencyContactHandler) CleanupExpiredTokens(c *gin.Context) {
	cleaned, err := h.contactService.CleanupExpiredTokens(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Expired tokens cleaned up", gin.H{"cleaned": cleaned})
}
