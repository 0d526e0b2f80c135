package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lodge_backend/internal/models"
	"lodge_backend/internal/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDashboardSummary handles GET /reports/dashboard
func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.reportService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to build dashboard summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetFinancialReport handles GET /reports/financial?start_date=&end_date=
func (h *ReportHandler) GetFinancialReport(c *gin.Context) {
	var params models.ReportRequestParams
	var ok bool
	if params.StartDate, ok = optionalDateQuery(c, "start_date"); !ok {
		return
	}
	if params.EndDate, ok = optionalDateQuery(c, "end_date"); !ok {
		return
	}

	report, err := h.reportService.GetFinancialReport(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "Failed to build financial report.")
		return
	}
	c.JSON(http.StatusOK, report)
}
