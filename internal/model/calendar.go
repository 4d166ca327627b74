package model

import "time"

// Calendar is a container for events and tasks, owned by a single user.
// Deleting a calendar cascades to its events and tasks at the database
// level (ON DELETE CASCADE).
type Calendar struct {
	ID          string    // calendars.id
	UserID      string    // calendars.user_id
	Title       string    // calendars.title
	Description string    // calendars.description (nullable)
	Color       string    // calendars.color, HEX code like "#AABBCC" (nullable)
	CreatedAt   time.Time // calendars.created_at
	UpdatedAt   time.Time // calendars.updated_at
}
