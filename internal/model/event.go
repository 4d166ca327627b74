package model

import "time"

// Event is a scheduled entry in a calendar.  StartAt/EndAt are stored in
// UTC; EndAt is never before StartAt (enforced at the handler boundary).
type Event struct {
	ID          string    // events.id
	CalendarID  string    // events.calendar_id
	Title       string    // events.title
	Description string    // events.description (nullable)
	StartAt     time.Time // events.start_at
	EndAt       time.Time // events.end_at
	Location    string    // events.location (nullable)
	IsAllDay    bool      // events.is_all_day
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}
