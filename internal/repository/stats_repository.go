package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
)

// DayCounts aggregates creation/completion activity inside one window.
type DayCounts struct {
	Events         int64
	Tasks          int64
	CompletedTasks int64
	NewCalendars   int64
}

// TopCalendar ranks a calendar by how many items it holds.
type TopCalendar struct {
	CalendarID    string
	CalendarTitle string
	UserID        string
	UserEmail     string
	EventsCount   int64
	TasksCount    int64
	TotalItems    int64
}

// Summary is the global footprint of the service, optionally restricted
// to users created inside a date range.
type Summary struct {
	TotalUsers      int64
	TotalCalendars  int64
	TotalEvents     int64
	TotalTasks      int64
	ActiveUsers     int64
	CompletedTasks  int64
	UpcomingEvents  int64 // events starting within the next 7 days
}

// StatsRepo runs the aggregate queries behind the admin stats endpoints.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// DayCounts returns activity counters for the [from, to] window.
func (r *StatsRepo) DayCounts(ctx context.Context, from, to time.Time) (DayCounts, error) {
	var c DayCounts
	steps := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM events WHERE created_at BETWEEN ? AND ?", &c.Events},
		{"SELECT COUNT(*) FROM tasks WHERE created_at BETWEEN ? AND ?", &c.Tasks},
		{"SELECT COUNT(*) FROM tasks WHERE status='" + model.TaskCompleted + "' AND completed_at BETWEEN ? AND ?", &c.CompletedTasks},
		{"SELECT COUNT(*) FROM calendars WHERE created_at BETWEEN ? AND ?", &c.NewCalendars},
	}
	for _, s := range steps {
		if err := r.DB.QueryRowContext(ctx, s.query, from, to).Scan(s.dest); err != nil {
			return DayCounts{}, err
		}
	}
	return c, nil
}

// TopCalendars returns up to limit calendars ordered by total item count
// (events plus tasks), busiest first.
func (r *StatsRepo) TopCalendars(ctx context.Context, limit int) ([]TopCalendar, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.title, u.id, u.email,
			   (SELECT COUNT(*) FROM events e WHERE e.calendar_id = c.id) AS events_count,
			   (SELECT COUNT(*) FROM tasks t WHERE t.calendar_id = c.id) AS tasks_count
		FROM calendars c
		JOIN users u ON u.id = c.user_id
		ORDER BY events_count + tasks_count DESC, c.created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopCalendar
	for rows.Next() {
		var t TopCalendar
		if err := rows.Scan(&t.CalendarID, &t.CalendarTitle, &t.UserID, &t.UserEmail,
			&t.EventsCount, &t.TasksCount); err != nil {
			return nil, err
		}
		t.TotalItems = t.EventsCount + t.TasksCount
		out = append(out, t)
	}
	return out, rows.Err()
}

// Summary computes the service-wide totals.  from/to restrict only the
// user counters, mirroring the reporting behavior the dashboards expect.
func (r *StatsRepo) Summary(ctx context.Context, from, to *time.Time) (Summary, error) {
	var s Summary

	userCond := "1=1"
	userArgs := []any{}
	if from != nil {
		userCond += " AND created_at>=?"
		userArgs = append(userArgs, *from)
	}
	if to != nil {
		userCond += " AND created_at<=?"
		userArgs = append(userArgs, *to)
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+userCond, userArgs...).Scan(&s.TotalUsers); err != nil {
		return Summary{}, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE is_active=1 AND "+userCond, userArgs...).Scan(&s.ActiveUsers); err != nil {
		return Summary{}, err
	}

	now := time.Now().UTC()
	steps := []struct {
		query string
		args  []any
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM calendars", nil, &s.TotalCalendars},
		{"SELECT COUNT(*) FROM events", nil, &s.TotalEvents},
		{"SELECT COUNT(*) FROM tasks", nil, &s.TotalTasks},
		{"SELECT COUNT(*) FROM tasks WHERE status='" + model.TaskCompleted + "'", nil, &s.CompletedTasks},
		{"SELECT COUNT(*) FROM events WHERE start_at BETWEEN ? AND ?", []any{now, now.Add(7 * 24 * time.Hour)}, &s.UpcomingEvents},
	}
	for _, st := range steps {
		if err := r.DB.QueryRowContext(ctx, st.query, st.args...).Scan(st.dest); err != nil {
			return Summary{}, err
		}
	}
	return s, nil
}
