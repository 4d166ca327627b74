// Package handler contains the HTTP handlers for every API group.  Each
// handler struct bundles the stores it needs behind narrow interfaces so
// tests can swap in fakes without a database.
package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// UserStore is the user persistence surface handlers depend on.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.UserFilter, p pagination.Request) ([]model.User, int64, error)
}

// CalendarStore is the calendar persistence surface.
type CalendarStore interface {
	Create(ctx context.Context, cal *model.Calendar) error
	GetByID(ctx context.Context, id string) (model.Calendar, error)
	Update(ctx context.Context, cal *model.Calendar) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.CalendarFilter, p pagination.Request) ([]model.Calendar, int64, error)
}

// EventStore is the event persistence surface.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.EventFilter, p pagination.Request) ([]model.Event, int64, error)
}

// TaskStore is the task persistence surface.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id string) (model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.TaskFilter, p pagination.Request) ([]model.Task, int64, error)
}

// StatsStore runs the aggregate queries behind the stats endpoints.
type StatsStore interface {
	DayCounts(ctx context.Context, from, to time.Time) (repository.DayCounts, error)
	TopCalendars(ctx context.Context, limit int) ([]repository.TopCalendar, error)
	Summary(ctx context.Context, from, to *time.Time) (repository.Summary, error)
}

// canAccess reports whether u may read or modify a resource owned by
// ownerID.  Admins may touch everything.
func canAccess(u model.User, ownerID string) bool {
	return u.Role == model.RoleAdmin || u.ID == ownerID
}

// Accepted layouts for timestamps arriving in bodies and query params.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime parses a client-supplied timestamp, normalized to UTC.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseTimeOpt parses an optional timestamp param; empty means absent.
func parseTimeOpt(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
