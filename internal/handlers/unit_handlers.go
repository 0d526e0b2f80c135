package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lodge_backend/internal/models"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

// UnitHandler handles HTTP requests for accommodation units.
type UnitHandler struct {
	service services.UnitService
}

// NewUnitHandler creates a new UnitHandler.
func NewUnitHandler(s services.UnitService) *UnitHandler {
	return &UnitHandler{service: s}
}

// CreateUnit handles POST /accommodation-units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var req services.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	unit, err := h.service.CreateUnit(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create accommodation unit.")
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// GetUnits handles GET /accommodation-units
func (h *UnitHandler) GetUnits(c *gin.Context) {
	filters := models.UnitFilters{
		Status: optionalQuery(c, "status"),
		Type:   optionalQuery(c, "type"),
	}
	units, err := h.service.ListUnits(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve accommodation units.")
		return
	}
	c.JSON(http.StatusOK, units)
}

// GetUnitByID handles GET /accommodation-units/:id
func (h *UnitHandler) GetUnitByID(c *gin.Context) {
	id, ok := parseIDParam(c, "accommodation unit")
	if !ok {
		return
	}
	unit, err := h.service.GetUnit(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve accommodation unit.")
		return
	}
	c.JSON(http.StatusOK, unit)
}

// UpdateUnit handles PUT and PATCH /accommodation-units/:id
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	id, ok := parseIDParam(c, "accommodation unit")
	if !ok {
		return
	}
	var req services.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	unit, err := h.service.UpdateUnit(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to update accommodation unit.")
		return
	}
	c.JSON(http.StatusOK, unit)
}

// DeleteUnit handles DELETE /accommodation-units/:id
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	id, ok := parseIDParam(c, "accommodation unit")
	if !ok {
		return
	}
	if err := h.service.DeleteUnit(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete accommodation unit.")
		return
	}
	c.Status(http.StatusNoContent)
}
