package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/response"
	"github.com/maxhub/max-backend/internal/service"
	"github.com/maxhub/max-backend/internal/validator"
)

// AttendanceHandler handles per-lesson attendance sessions.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
	lessonService     *service.LessonService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService, lessonService *service.LessonService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, lessonService: lessonService}
}

// GetLessonAttendance godoc
// GET /api/v1/attendance/lesson/:id
// Reconciles the lesson's group roster with persisted records into a
// fresh session: one entry per enrolled student, present iff their
// latest record says so.
func (h *AttendanceHandler) GetLessonAttendance(c *gin.Context) {
	lessonID, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, lesson, err := h.attendanceService.LoadSession(c.Request.Context(), lessonID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"lesson":  lesson,
		"session": session,
	})
}

// SaveLessonAttendance godoc
// PUT /api/v1/attendance/lesson/:id
// Replaces the lesson's records for the payload's date. Every roster
// entry arrives explicitly, absent students included; a failed save
// changes nothing server-side so the client keeps its dirty state.
func (h *AttendanceHandler) SaveLessonAttendance(c *gin.Context) {
	lessonID, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if len(req.Records) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	// All records of one save share a calendar date.
	date := req.Records[0].Date
	records := make([]model.AttendanceRecord, 0, len(req.Records))
	for _, item := range req.Records {
		if item.Date != date {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		records = append(records, model.AttendanceRecord{
			StudentID: item.StudentID,
			LessonID:  lessonID,
			Date:      item.Date,
			Status:    item.Status,
		})
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), lessonID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.attendanceService.SaveRecords(c.Request.Context(), lesson, date, records); err != nil {
		if errors.Is(err, service.ErrStudentNotInRoster) {
			response.Fail(c, http.StatusBadRequest, response.ErrStudentNotInRoster)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrSaveFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "attendance saved successfully", "saved": len(records)})
}
