package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxhub/max-backend/internal/repository"
	"github.com/maxhub/max-backend/internal/response"
	"github.com/maxhub/max-backend/internal/service"
)

// ReportHandler handles attendance reporting endpoints.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// DetailedReport godoc
// GET /api/v1/admin/reports/attendance
// Filters: group_id, student_id, subject_id, date_from, date_to
// (dates as YYYY-MM-DD).
func (h *ReportHandler) DetailedReport(c *gin.Context) {
	filter := repository.ReportFilter{
		GroupID:   optionalIntQuery(c, "group_id"),
		StudentID: optionalIntQuery(c, "student_id"),
		SubjectID: optionalIntQuery(c, "subject_id"),
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
	}

	records, err := h.reportService.DetailedReport(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"records": records})
}

// GroupsStats godoc
// GET /api/v1/admin/reports/groups
// Per-group totals and attendance rate, optionally date-ranged.
func (h *ReportHandler) GroupsStats(c *gin.Context) {
	stats, err := h.reportService.GroupsStats(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"groups": stats})
}
