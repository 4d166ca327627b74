package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/calendar-suite/internal/repository"
)

type fakeStatsStore struct {
	day     repository.DayCounts
	top     []repository.TopCalendar
	summary repository.Summary

	dayCalls  int
	lastLimit int
}

func (s *fakeStatsStore) DayCounts(context.Context, time.Time, time.Time) (repository.DayCounts, error) {
	s.dayCalls++
	return s.day, nil
}

func (s *fakeStatsStore) TopCalendars(_ context.Context, limit int) ([]repository.TopCalendar, error) {
	s.lastLimit = limit
	return s.top, nil
}

func (s *fakeStatsStore) Summary(context.Context, *time.Time, *time.Time) (repository.Summary, error) {
	return s.summary, nil
}

func newStatsApp(store *fakeStatsStore) *echo.Echo {
	h := &StatsHandler{Stats: store}
	e := echo.New()
	e.GET("/stats/daily", h.Daily)
	e.GET("/stats/top-calendars", h.TopCalendars)
	e.GET("/stats/summary", h.Summary)
	return e
}

func statsGet(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStatsDaily(t *testing.T) {
	store := &fakeStatsStore{day: repository.DayCounts{Events: 2, Tasks: 3, CompletedTasks: 1, NewCalendars: 1}}
	e := newStatsApp(store)

	rec := statsGet(e, "/stats/daily?days=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, store.dayCalls, "one aggregate query per day")

	var body struct {
		Days  int              `json:"days"`
		Items []dailyStatsItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Days)
	require.Len(t, body.Items, 3)
	assert.Equal(t, int64(2), body.Items[0].Events)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), body.Items[0].Date)
}

func TestStatsDailyBounds(t *testing.T) {
	e := newStatsApp(&fakeStatsStore{})

	for _, q := range []string{"days=0", "days=31", "days=-1", "days=soon"} {
		rec := statsGet(e, "/stats/daily?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestStatsTopCalendars(t *testing.T) {
	store := &fakeStatsStore{top: []repository.TopCalendar{
		{CalendarID: "c1", CalendarTitle: "Busy", UserEmail: "a@x.com", EventsCount: 5, TasksCount: 2, TotalItems: 7},
	}}
	e := newStatsApp(store)

	rec := statsGet(e, "/stats/top-calendars")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, store.lastLimit, "default limit")
	assert.Contains(t, rec.Body.String(), `"total_items":7`)

	require.Equal(t, http.StatusOK, statsGet(e, "/stats/top-calendars?limit=50").Code)
	assert.Equal(t, 50, store.lastLimit)

	for _, q := range []string{"limit=0", "limit=51", "limit=lots"} {
		rec := statsGet(e, "/stats/top-calendars?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestStatsSummary(t *testing.T) {
	store := &fakeStatsStore{summary: repository.Summary{TotalUsers: 4, ActiveUsers: 3, CompletedTasks: 9}}
	e := newStatsApp(store)

	rec := statsGet(e, "/stats/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_users":4`)
	assert.Contains(t, rec.Body.String(), `"completed_tasks":9`)

	rec = statsGet(e, "/stats/summary?date_from=2026-01-01&date_to=2026-06-30")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = statsGet(e, "/stats/summary?date_from=janvier")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
