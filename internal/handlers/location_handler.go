package handlers

import (
	"strconv"
	"time"

	"safetrack/internal/services"
	"safetrack/internal/utils"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService services.LocationService
}

func NewLocationHandler(locationService services.LocationService) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
	}
}

// RecordLocation stores a single location ping
func (h *LocationHandler) RecordLocation(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	var request services.RecordLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	location, err := h.locationService.Record(c.Request.Context(), caller, userID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Location recorded", location)
}

// RecordLocationBatch stores a batch of buffered location pings
func (h *LocationHandler) RecordLocationBatch(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	var requests []*services.RecordLocationRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	stored, err := h.locationService.RecordBatch(c.Request.Context(), caller, userID, requests)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Locations recorded", gin.H{"stored": stored})
}

// TriggerSOS records an emergency location and alerts active contacts
func (h *LocationHandler) TriggerSOS(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	var request services.RecordLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.locationService.TriggerSOS(c.Request.Context(), caller, userID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "SOS triggered", result)
}

// GetCurrentLocation returns the most recent location for a user
func (h *LocationHandler) GetCurrentLocation(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	location, err := h.locationService.Current(c.Request.Context(), caller, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Current location retrieved", location)
}

// GetLocationHistory returns paginated location history, optionally bounded
// by a from/to time range
func (h *LocationHandler) GetLocationHistory(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid from timestamp")
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid to timestamp")
			return
		}

		locations, err := h.locationService.HistoryRange(c.Request.Context(), caller, userID, from, to)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.SuccessResponseWithMeta(c, "Location history retrieved", locations, &utils.Meta{
			Count: len(locations),
		})
		return
	}

	params := utils.GetPaginationParams(c)
	locations, total, err := h.locationService.History(c.Request.Context(), caller, userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Location history retrieved", locations, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}

// GetEmergencyHistory returns the user's emergency location pings
func (h *LocationHandler) GetEmergencyHistory(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	userID, ok := parseObjectID(c, "userId")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	locations, total, err := h.locationService.EmergencyHistory(c.Request.Context(), caller, userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Emergency history retrieved", locations, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
	})
}

// GetNearbyEmergencies returns recent emergency pings near a point (admin)
func (h *LocationHandler) GetNearbyEmergencies(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	latitude, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid latitude")
		return
	}
	longitude, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid longitude")
		return
	}
	radiusKM, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid radius")
		return
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid since timestamp")
			return
		}
	}

	locations, err := h.locationService.NearbyEmergencies(c.Request.Context(), caller, latitude, longitude, radiusKM, since)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby emergencies retrieved", locations, &utils.Meta{
		Count: len(locations),
	})
}
