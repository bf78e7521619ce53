package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/response"
	"github.com/maxhub/max-backend/internal/service"
	"github.com/maxhub/max-backend/internal/validator"
)

// ScheduleHandler handles schedule aggregation and slot management.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	lessonService   *service.LessonService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService, lessonService *service.LessonService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, lessonService: lessonService}
}

// parseQuery builds a ScheduleQuery from request parameters.
//
//	view=week (default) | month
//	week_type=1|2 forces odd/even; absent derives from week_offset
//	week_offset=<signed int>, month=0..11, year=<int>
func parseQuery(c *gin.Context) model.ScheduleQuery {
	if c.Query("view") == string(model.ViewMonth) {
		now := time.Now()
		query := model.ScheduleQuery{ViewMode: model.ViewMonth, Month: int(now.Month()) - 1, Year: now.Year()}
		if m := optionalIntQuery(c, "month"); m != nil && *m >= 0 && *m <= 11 {
			query.Month = *m
		}
		if y := optionalIntQuery(c, "year"); y != nil {
			query.Year = *y
		}
		return query
	}

	query := model.ScheduleQuery{ViewMode: model.ViewWeek}
	if raw := c.Query("week_type"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && (n == int(model.WeekOdd) || n == int(model.WeekEven)) {
			parity := model.WeekParity(n)
			query.ParityOverride = &parity
		}
	}
	if off := optionalIntQuery(c, "week_offset"); off != nil {
		query.WeekOffset = *off
	}
	return query
}

// GetSchedule godoc
// GET /api/v1/schedule
// Returns the requester's aggregated schedule: for teachers, own
// lessons merged with curated groups' lessons; for admins, everything.
// Optional subject= applies an exact-match filter; the distinct subject
// list of the unfiltered aggregate rides along for the filter control.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	claims := getClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	requester := service.Requester{ID: claims.UserID, Role: claims.Role}
	query := parseQuery(c)
	groupFilter := optionalIntQuery(c, "group_id")

	schedule, err := h.scheduleService.Aggregate(c.Request.Context(), requester, query, groupFilter)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrScheduleUnavailable)
		return
	}

	composed := service.ComposeSchedule(schedule, c.Query("subject"))

	response.Success(c, http.StatusOK, gin.H{
		"schedule": composed,
		"subjects": service.DistinctSubjects(schedule),
	})
}

// GetSubjects godoc
// GET /api/v1/schedule/subjects
// Returns the distinct subject names of the requester's aggregate.
func (h *ScheduleHandler) GetSubjects(c *gin.Context) {
	claims := getClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	requester := service.Requester{ID: claims.UserID, Role: claims.Role}
	schedule, err := h.scheduleService.Aggregate(c.Request.Context(), requester, parseQuery(c), nil)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrScheduleUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": service.DistinctSubjects(schedule)})
}

// GetLesson godoc
// GET /api/v1/lessons/:id
// Returns one lesson slot with joined names.
func (h *ScheduleHandler) GetLesson(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}

// CreateSlot godoc
// POST /api/v1/admin/schedule-slots
// Creates a schedule slot.
func (h *ScheduleHandler) CreateSlot(c *gin.Context) {
	var req model.CreateLessonSlotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson := &model.LessonSlot{
		SubjectID:  req.SubjectID,
		GroupID:    req.GroupID,
		TeacherID:  req.TeacherID,
		DayOfWeek:  req.DayOfWeek,
		TimeStart:  req.TimeStart,
		TimeEnd:    req.TimeEnd,
		Room:       req.Room,
		WeekParity: req.WeekParity,
		LessonType: req.LessonType,
	}
	if err := h.lessonService.Create(c.Request.Context(), lesson); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"lesson": lesson})
}

// UpdateSlot godoc
// PUT /api/v1/admin/schedule-slots/:id
// Updates a schedule slot.
func (h *ScheduleHandler) UpdateSlot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateLessonSlotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson := &model.LessonSlot{
		ID:         id,
		SubjectID:  req.SubjectID,
		GroupID:    req.GroupID,
		TeacherID:  req.TeacherID,
		DayOfWeek:  req.DayOfWeek,
		TimeStart:  req.TimeStart,
		TimeEnd:    req.TimeEnd,
		Room:       req.Room,
		WeekParity: req.WeekParity,
		LessonType: req.LessonType,
	}
	if err := h.lessonService.Update(c.Request.Context(), lesson); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	updated, _ := h.lessonService.GetByID(c.Request.Context(), id)
	response.Success(c, http.StatusOK, gin.H{"lesson": updated})
}

// DeleteSlot godoc
// DELETE /api/v1/admin/schedule-slots/:id
// Deletes a schedule slot.
func (h *ScheduleHandler) DeleteSlot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "schedule slot deleted successfully"})
}
