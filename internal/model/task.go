package model

import "time"

// Task states.  COMPLETED is the only state that carries a CompletedAt
// timestamp; moving a task out of COMPLETED clears it.
const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
	TaskCancelled  = "CANCELLED"
)

// ValidTaskStatus reports whether s is one of the known task states.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Task is a to-do item attached to a calendar.
//
// Fields:
//  DueAt       – optional deadline.
//  CompletedAt – set when Status becomes COMPLETED, nil otherwise.
//  Priority    – free-form label, conventionally LOW/MEDIUM/HIGH.
type Task struct {
	ID          string     // tasks.id
	CalendarID  string     // tasks.calendar_id
	Title       string     // tasks.title
	Description string     // tasks.description (nullable)
	DueAt       *time.Time // tasks.due_at (nullable)
	CompletedAt *time.Time // tasks.completed_at (nullable)
	Status      string     // tasks.status
	Priority    string     // tasks.priority (nullable)
	CreatedAt   time.Time  // tasks.created_at
	UpdatedAt   time.Time  // tasks.updated_at
}
