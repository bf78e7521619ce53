package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/response"
	"github.com/maxhub/max-backend/internal/service"
	"github.com/maxhub/max-backend/internal/validator"
)

// GroupHandler handles group management and rosters.
type GroupHandler struct {
	groupService *service.GroupService
	userService  *service.UserService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *service.GroupService, userService *service.UserService) *GroupHandler {
	return &GroupHandler{groupService: groupService, userService: userService}
}

// ListGroups godoc
// GET /api/v1/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"groups": groups})
}

// GetGroup godoc
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	group, err := h.groupService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group": group})
}

// GetGroupStudents godoc
// GET /api/v1/groups/:id/students
// Returns the group's roster ordered by last name.
func (h *GroupHandler) GetGroupStudents(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.groupService.GetByID(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	students, err := h.userService.ListGroupStudents(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// CreateGroup godoc
// POST /api/v1/admin/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req model.CreateGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group := &model.Group{Name: req.Name, CuratorID: req.CuratorID}
	if err := h.groupService.Create(c.Request.Context(), group); err != nil {
		if isUniqueViolation(err) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"group": group})
}

// UpdateGroup godoc
// PUT /api/v1/admin/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group := &model.Group{ID: id, Name: req.Name, CuratorID: req.CuratorID}
	if err := h.groupService.Update(c.Request.Context(), group); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	updated, _ := h.groupService.GetByID(c.Request.Context(), id)
	response.Success(c, http.StatusOK, gin.H{"group": updated})
}

// DeleteGroup godoc
// DELETE /api/v1/admin/groups/:id
// Groups with enrolled students or scheduled lessons cannot be removed.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id); err != nil {
		if isForeignKeyViolation(err) {
			response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "group deleted successfully"})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
