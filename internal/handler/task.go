package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/httperr"
	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// TaskHandler serves task CRUD.  Like events, ownership is derived
// through the containing calendar.
type TaskHandler struct {
	Tasks     TaskStore
	Calendars CalendarStore
}

type taskCreateRequest struct {
	CalendarID  string `json:"calendar_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueAt       string `json:"due_at"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// Create adds a task to a calendar the caller owns.  Status defaults to
// PENDING; creating a task directly in COMPLETED stamps completed_at.
func (h *TaskHandler) Create(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req taskCreateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if req.CalendarID == "" || strings.TrimSpace(req.Title) == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "calendar_id and title are required")
	}
	if req.Status == "" {
		req.Status = model.TaskPending
	}
	if !model.ValidTaskStatus(req.Status) {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "unknown task status")
	}
	dueAt, err := parseTimeOpt(req.DueAt)
	if err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "due_at is not a valid date")
	}

	ctx := c.Request().Context()
	cal, err := h.Calendars.GetByID(ctx, req.CalendarID)
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "calendar not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load calendar")
	}
	if !canAccess(u, cal.UserID) {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "not the calendar owner")
	}

	t := model.Task{
		ID:          uuid.NewString(),
		CalendarID:  cal.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueAt:       dueAt,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if t.Status == model.TaskCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	if err := h.Tasks.Create(ctx, &t); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not create task")
	}
	return c.JSON(http.StatusCreated, newTaskResponse(t))
}

// List returns a page of tasks scoped to the caller's calendars, or all
// calendars for admins.
func (h *TaskHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	p := pagination.Parse(c)

	f := repository.TaskFilter{
		CalendarID: c.QueryParam("calendar_id"),
		Status:     c.QueryParam("status"),
		Priority:   c.QueryParam("priority"),
	}
	if u.Role != model.RoleAdmin {
		f.OwnerID = u.ID
	}
	if f.Status != "" && !model.ValidTaskStatus(f.Status) {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "unknown task status")
	}
	var err error
	if f.DueFrom, err = parseTimeOpt(c.QueryParam("due_from")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "due_from is not a valid date")
	}
	if f.DueTo, err = parseTimeOpt(c.QueryParam("due_to")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "due_to is not a valid date")
	}

	tasks, total, err := h.Tasks.List(c.Request().Context(), f, p)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not list tasks")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(newTaskResponses(tasks), p, total))
}

// Get returns one task, owner or admin only.
func (h *TaskHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	t, ok := h.loadOwned(c, u)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, newTaskResponse(t))
}

type taskUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueAt       string `json:"due_at"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// Update replaces a task's editable fields.  Entering COMPLETED stamps
// completed_at; leaving COMPLETED clears it; staying COMPLETED keeps the
// original timestamp.
func (h *TaskHandler) Update(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req taskUpdateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "title is required")
	}
	if req.Status == "" {
		req.Status = model.TaskPending
	}
	if !model.ValidTaskStatus(req.Status) {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "unknown task status")
	}
	dueAt, err := parseTimeOpt(req.DueAt)
	if err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "due_at is not a valid date")
	}

	t, ok := h.loadOwned(c, u)
	if !ok {
		return nil
	}
	switch {
	case req.Status == model.TaskCompleted && t.Status != model.TaskCompleted:
		now := time.Now().UTC()
		t.CompletedAt = &now
	case req.Status != model.TaskCompleted:
		t.CompletedAt = nil
	}
	t.Title = strings.TrimSpace(req.Title)
	t.Description = req.Description
	t.DueAt = dueAt
	t.Status = req.Status
	t.Priority = req.Priority
	if err := h.Tasks.Update(c.Request().Context(), &t); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update task")
	}
	return c.JSON(http.StatusOK, newTaskResponse(t))
}

// Delete removes a task.
func (h *TaskHandler) Delete(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	t, ok := h.loadOwned(c, u)
	if !ok {
		return nil
	}
	if err := h.Tasks.Delete(c.Request().Context(), t.ID); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not delete task")
	}
	return c.NoContent(http.StatusNoContent)
}

// loadOwned fetches the :id task and enforces ownership through its
// calendar.  A false return means the error response has already been
// written.
func (h *TaskHandler) loadOwned(c echo.Context, u model.User) (model.Task, bool) {
	ctx := c.Request().Context()
	t, err := h.Tasks.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		_ = httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "task not found")
		return model.Task{}, false
	}
	if err != nil {
		_ = httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load task")
		return model.Task{}, false
	}
	cal, err := h.Calendars.GetByID(ctx, t.CalendarID)
	if err != nil {
		_ = httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load calendar")
		return model.Task{}, false
	}
	if !canAccess(u, cal.UserID) {
		_ = httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "not the calendar owner")
		return model.Task{}, false
	}
	return t, true
}
