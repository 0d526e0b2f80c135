package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lodge_backend/internal/models"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

// ReservationHandler holds the reservation and availability services.
type ReservationHandler struct {
	reservationService  services.ReservationService
	availabilityService services.AvailabilityService
	loc                 *time.Location
}

// NewReservationHandler creates a new ReservationHandler. loc interprets
// timestamps that carry no zone.
func NewReservationHandler(rs services.ReservationService, as services.AvailabilityService, loc *time.Location) *ReservationHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationHandler{reservationService: rs, availabilityService: as, loc: loc}
}

// CreateReservation handles POST /reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req services.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	result, err := h.reservationService.CreateReservation(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create reservation.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetReservations handles GET /reservations
func (h *ReservationHandler) GetReservations(c *gin.Context) {
	page, pageSize := parsePagination(c, 50)
	filters := models.ReservationFilters{
		Status:   optionalQuery(c, "status"),
		Page:     page,
		PageSize: pageSize,
	}
	var ok bool
	if filters.AccommodationUnitID, ok = optionalInt64Query(c, "accommodation_unit"); !ok {
		return
	}
	if filters.ClientID, ok = optionalInt64Query(c, "client"); !ok {
		return
	}
	if filters.CheckInStart, ok = optionalTimeQuery(c, "check_in_start", h.loc); !ok {
		return
	}
	if filters.CheckInEnd, ok = optionalTimeQuery(c, "check_in_end", h.loc); !ok {
		return
	}

	reservations, total, err := h.reservationService.GetReservations(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve reservations.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      reservations,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetReservationByID handles GET /reservations/:id
func (h *ReservationHandler) GetReservationByID(c *gin.Context) {
	id, ok := parseIDParam(c, "reservation")
	if !ok {
		return
	}
	reservation, err := h.reservationService.GetReservationByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// ReplaceReservation handles PUT /reservations/:id. Omitted optional fields
// keep their stored values.
func (h *ReservationHandler) ReplaceReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "reservation")
	if !ok {
		return
	}
	var req services.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	result, err := h.reservationService.UpdateReservation(c.Request.Context(), id, req.AsUpdate())
	if err != nil {
		respondServiceError(c, err, "Failed to update reservation.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateReservation handles PATCH /reservations/:id
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "reservation")
	if !ok {
		return
	}
	var req services.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	result, err := h.reservationService.UpdateReservation(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to update reservation.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecordPayment handles POST /reservations/:id/payments
func (h *ReservationHandler) RecordPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "reservation")
	if !ok {
		return
	}
	var req services.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	result, err := h.reservationService.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to record payment.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteReservation handles DELETE /reservations/:id
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "reservation")
	if !ok {
		return
	}
	if err := h.reservationService.DeleteReservation(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete reservation.")
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAvailability handles GET /reservations/check_availability
func (h *ReservationHandler) CheckAvailability(c *gin.Context) {
	apiErr := utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "check_in and check_out are required ISO 8601 timestamps.", "")
	checkIn, inOK := h.requiredTime(c, "check_in", apiErr)
	checkOut, outOK := h.requiredTime(c, "check_out", apiErr)
	if !inOK || !outOK {
		utils.RespondWithError(c, apiErr)
		return
	}

	units, err := h.availabilityService.FindAvailable(c.Request.Context(), checkIn, checkOut)
	if err != nil {
		respondServiceError(c, err, "Failed to check availability.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"check_in":        checkIn.In(h.loc),
		"check_out":       checkOut.In(h.loc),
		"available_units": units,
	})
}

// requiredTime parses a mandatory timestamp query parameter, recording a
// field error on apiErr when it is missing or malformed.
func (h *ReservationHandler) requiredTime(c *gin.Context, key string, apiErr *utils.APIError) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		apiErr.WithField(key, "is required")
		return time.Time{}, false
	}
	t, err := utils.ParseTimestamp(raw, h.loc)
	if err != nil {
		apiErr.WithField(key, err.Error())
		return time.Time{}, false
	}
	return t, true
}
