package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/httperr"
)

// StatsHandler serves the admin reporting endpoints.
type StatsHandler struct {
	Stats StatsStore
}

type dailyStatsItem struct {
	Date           string `json:"date"`
	Events         int64  `json:"events"`
	Tasks          int64  `json:"tasks"`
	CompletedTasks int64  `json:"completed_tasks"`
	NewCalendars   int64  `json:"new_calendars"`
}

// Daily returns per-day activity counters for the last N days (default 7,
// max 30), most recent day first.
func (h *StatsHandler) Daily(c echo.Context) error {
	days := 7
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "days must be an integer")
		}
		days = n
	}
	if days < 1 || days > 30 {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "days must be between 1 and 30")
	}

	ctx := c.Request().Context()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	items := make([]dailyStatsItem, 0, days)
	for i := 0; i < days; i++ {
		dayStart := today.AddDate(0, 0, -i)
		dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
		counts, err := h.Stats.DayCounts(ctx, dayStart, dayEnd)
		if err != nil {
			return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not compute stats")
		}
		items = append(items, dailyStatsItem{
			Date:           dayStart.Format("2006-01-02"),
			Events:         counts.Events,
			Tasks:          counts.Tasks,
			CompletedTasks: counts.CompletedTasks,
			NewCalendars:   counts.NewCalendars,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days, "items": items})
}

type topCalendarItem struct {
	CalendarID    string `json:"calendar_id"`
	CalendarTitle string `json:"calendar_title"`
	UserID        string `json:"user_id"`
	UserEmail     string `json:"user_email"`
	EventsCount   int64  `json:"events_count"`
	TasksCount    int64  `json:"tasks_count"`
	TotalItems    int64  `json:"total_items"`
}

// TopCalendars returns the busiest calendars by combined event and task
// count (default 10, max 50).
func (h *StatsHandler) TopCalendars(c echo.Context) error {
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "limit must be an integer")
		}
		limit = n
	}
	if limit < 1 || limit > 50 {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "limit must be between 1 and 50")
	}

	top, err := h.Stats.TopCalendars(c.Request().Context(), limit)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not compute stats")
	}
	items := make([]topCalendarItem, 0, len(top))
	for _, t := range top {
		items = append(items, topCalendarItem{
			CalendarID:    t.CalendarID,
			CalendarTitle: t.CalendarTitle,
			UserID:        t.UserID,
			UserEmail:     t.UserEmail,
			EventsCount:   t.EventsCount,
			TasksCount:    t.TasksCount,
			TotalItems:    t.TotalItems,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Summary returns service-wide totals.  date_from/date_to optionally
// restrict the user counters to a signup window.
func (h *StatsHandler) Summary(c echo.Context) error {
	from, err := parseTimeOpt(c.QueryParam("date_from"))
	if err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "date_from is not a valid date")
	}
	to, err := parseTimeOpt(c.QueryParam("date_to"))
	if err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "date_to is not a valid date")
	}

	s, err := h.Stats.Summary(c.Request().Context(), from, to)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not compute stats")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_users":     s.TotalUsers,
		"active_users":    s.ActiveUsers,
		"total_calendars": s.TotalCalendars,
		"total_events":    s.TotalEvents,
		"total_tasks":     s.TotalTasks,
		"completed_tasks": s.CompletedTasks,
		"upcoming_events": s.UpcomingEvents,
	})
}
