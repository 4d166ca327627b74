package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/httperr"
	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// CalendarHandler serves calendar CRUD.  Non-admins only ever see their
// own calendars; admins see everything.
type CalendarHandler struct {
	Calendars CalendarStore
}

type calendarRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Create adds a calendar owned by the caller.
func (h *CalendarHandler) Create(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req calendarRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "title is required")
	}

	cal := model.Calendar{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Color:       req.Color,
	}
	if err := h.Calendars.Create(c.Request().Context(), &cal); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not create calendar")
	}
	return c.JSON(http.StatusCreated, newCalendarResponse(cal))
}

// List returns a page of calendars.  Admins may scope to any user with
// the user_id filter, or omit it to see all calendars.
func (h *CalendarHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	p := pagination.Parse(c)

	f := repository.CalendarFilter{UserID: u.ID}
	if u.Role == model.RoleAdmin {
		f.UserID = c.QueryParam("user_id")
	}
	var err error
	if f.CreatedFrom, err = parseTimeOpt(c.QueryParam("created_from")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "created_from is not a valid date")
	}
	if f.CreatedTo, err = parseTimeOpt(c.QueryParam("created_to")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "created_to is not a valid date")
	}

	cals, total, err := h.Calendars.List(c.Request().Context(), f, p)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not list calendars")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(newCalendarResponses(cals), p, total))
}

// Get returns one calendar, owner or admin only.
func (h *CalendarHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	cal, err := h.Calendars.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "calendar not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load calendar")
	}
	if !canAccess(u, cal.UserID) {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "not the calendar owner")
	}
	return c.JSON(http.StatusOK, newCalendarResponse(cal))
}

// Update replaces a calendar's editable fields.
func (h *CalendarHandler) Update(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req calendarRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "title is required")
	}

	ctx := c.Request().Context()
	cal, err := h.Calendars.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "calendar not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load calendar")
	}
	if !canAccess(u, cal.UserID) {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "not the calendar owner")
	}

	cal.Title = strings.TrimSpace(req.Title)
	cal.Description = req.Description
	cal.Color = req.Color
	if err := h.Calendars.Update(ctx, &cal); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update calendar")
	}
	return c.JSON(http.StatusOK, newCalendarResponse(cal))
}

// Delete removes a calendar and, via the schema's cascade, everything in it.
func (h *CalendarHandler) Delete(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx := c.Request().Context()
	cal, err := h.Calendars.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "calendar not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load calendar")
	}
	if !canAccess(u, cal.UserID) {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "not the calendar owner")
	}
	if err := h.Calendars.Delete(ctx, cal.ID); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not delete calendar")
	}
	return c.NoContent(http.StatusNoContent)
}
