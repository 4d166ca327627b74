package handler

import (
	"errors"
	"net/http"
	"strconv"
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

// EventHandler serves event CRUD.  Ownership is derived through the
// containing calendar.
type EventHandler struct {
	Events    EventStore
	Calendars CalendarStore
}

type eventCreateRequest struct {
	CalendarID  string `json:"calendar_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at"`
	Location    string `json:"location"`
	IsAllDay    bool   `json:"is_all_day"`
}

// Create adds an event to a calendar the caller owns.
func (h *EventHandler) Create(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req eventCreateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if req.CalendarID == "" || strings.TrimSpace(req.Title) == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "calendar_id and title are required")
	}
	startAt, endAt, err := parseEventWindow(req.StartAt, req.EndAt)
	if err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, err.Error())
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

	e := model.Event{
		ID:          uuid.NewString(),
		CalendarID:  cal.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartAt:     startAt,
		EndAt:       endAt,
		Location:    req.Location,
		IsAllDay:    req.IsAllDay,
	}
	if err := h.Events.Create(ctx, &e); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not create event")
	}
	return c.JSON(http.StatusCreated, newEventResponse(e))
}

// List returns a page of events scoped to the caller's calendars, or all
// calendars for admins.
func (h *EventHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	p := pagination.Parse(c)

	f := repository.EventFilter{CalendarID: c.QueryParam("calendar_id")}
	if u.Role != model.RoleAdmin {
		f.OwnerID = u.ID
	}
	var err error
	if f.StartFrom, err = parseTimeOpt(c.QueryParam("start_from")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "start_from is not a valid date")
	}
	if f.StartTo, err = parseTimeOpt(c.QueryParam("start_to")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "start_to is not a valid date")
	}
	if f.EndFrom, err = parseTimeOpt(c.QueryParam("end_from")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "end_from is not a valid date")
	}
	if f.EndTo, err = parseTimeOpt(c.QueryParam("end_to")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "end_to is not a valid date")
	}
	if v := c.QueryParam("is_all_day"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "is_all_day must be a boolean")
		}
		f.IsAllDay = &b
	}

	events, total, err := h.Events.List(c.Request().Context(), f, p)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not list events")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(newEventResponses(events), p, total))
}

// Get returns one event, owner or admin only.
func (h *EventHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	e, ok := h.loadOwned(c, u)
	if !ok {
		return nil // error response already written
	}
	return c.JSON(http.StatusOK, newEventResponse(e))
}

type eventUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at"`
	Location    string `json:"location"`
	IsAllDay    bool   `json:"is_all_day"`
}

// Update replaces an event's editable fields.  Moving an event between
// calendars is not supported.
func (h *EventHandler) Update(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req eventUpdateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "title is required")
	}
	startAt, endAt, err := parseEventWindow(req.StartAt, req.EndAt)
	if err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, err.Error())
	}

	e, ok := h.loadOwned(c, u)
	if !ok {
		return nil
	}
	e.Title = strings.TrimSpace(req.Title)
	e.Description = req.Description
	e.StartAt = startAt
	e.EndAt = endAt
	e.Location = req.Location
	e.IsAllDay = req.IsAllDay
	if err := h.Events.Update(c.Request().Context(), &e); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update event")
	}
	return c.JSON(http.StatusOK, newEventResponse(e))
}

// Delete removes an event.
func (h *EventHandler) Delete(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	e, ok := h.loadOwned(c, u)
	if !ok {
		return nil
	}
	if err := h.Events.Delete(c.Request().Context(), e.ID); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not delete event")
	}
	return c.NoContent(http.StatusNoContent)
}

// loadOwned fetches the :id event and enforces ownership through its
// calendar.  A false return means the error response has already been
// written and the handler should stop.
func (h *EventHandler) loadOwned(c echo.Context, u model.User) (model.Event, bool) {
	ctx := c.Request().Context()
	e, err := h.Events.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		_ = httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "event not found")
		return model.Event{}, false
	}
	if err != nil {
		_ = httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load event")
		return model.Event{}, false
	}
	cal, err := h.Calendars.GetByID(ctx, e.CalendarID)
	if err != nil {
		_ = httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load calendar")
		return model.Event{}, false
	}
	if !canAccess(u, cal.UserID) {
		_ = httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "not the calendar owner")
		return model.Event{}, false
	}
	return e, true
}

// parseEventWindow validates the start/end pair shared by create and
// update: both present, both parseable, end never before start.
func parseEventWindow(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, errors.New("start_at and end_at are required")
	}
	startAt, err := parseTime(start)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_at is not a valid date")
	}
	endAt, err := parseTime(end)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_at is not a valid date")
	}
	if endAt.Before(startAt) {
		return time.Time{}, time.Time{}, errors.New("end_at must not be before start_at")
	}
	return startAt, endAt, nil
}
