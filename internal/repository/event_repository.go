package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
)

var eventSortColumns = map[string]string{
	"title":      "e.title",
	"start_at":   "e.start_at",
	"end_at":     "e.end_at",
	"created_at": "e.created_at",
	"updated_at": "e.updated_at",
}

// EventFilter narrows event listings.  OwnerID scopes the query to
// calendars owned by that user (admins pass empty for a global view).
type EventFilter struct {
	OwnerID    string
	CalendarID string
	StartFrom  *time.Time
	StartTo    *time.Time
	EndFrom    *time.Time
	EndTo      *time.Time
	IsAllDay   *bool
}

type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "e.id,e.calendar_id,e.title,e.description,e.start_at,e.end_at,e.location,e.is_all_day,e.created_at,e.updated_at"

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var (
		e         model.Event
		desc, loc sql.NullString
	)
	err := row.Scan(&e.ID, &e.CalendarID, &e.Title, &desc, &e.StartAt, &e.EndAt,
		&loc, &e.IsAllDay, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	e.Description = desc.String
	e.Location = loc.String
	return e, nil
}

func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (id, calendar_id, title, description, start_at, end_at, location, is_all_day) VALUES (?,?,?,?,?,?,?,?)",
		e.ID, e.CalendarID, e.Title, nullStr(e.Description), e.StartAt, e.EndAt, nullStr(e.Location), e.IsAllDay)
	return err
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE e.id=? LIMIT 1", id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrNotFound
	}
	return e, err
}

func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE events SET title=?, description=?, start_at=?, end_at=?, location=?, is_all_day=?, updated_at=NOW() WHERE id=?",
		e.Title, nullStr(e.Description), e.StartAt, e.EndAt, nullStr(e.Location), e.IsAllDay, e.ID)
	return err
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of events matching the filter plus the total.
// The ownership scope joins through calendars.
func (r *EventRepo) List(ctx context.Context, f EventFilter, p pagination.Request) ([]model.Event, int64, error) {
	from := "events e"
	where := []string{"1=1"}
	args := []any{}
	if f.OwnerID != "" {
		from = "events e JOIN calendars c ON c.id = e.calendar_id"
		where = append(where, "c.user_id=?")
		args = append(args, f.OwnerID)
	}
	if f.CalendarID != "" {
		where = append(where, "e.calendar_id=?")
		args = append(args, f.CalendarID)
	}
	if p.Keyword != "" {
		where = append(where, "(e.title LIKE ? OR e.description LIKE ? OR e.location LIKE ?)")
		kw := "%" + p.Keyword + "%"
		args = append(args, kw, kw, kw)
	}
	if f.StartFrom != nil {
		where = append(where, "e.start_at>=?")
		args = append(args, *f.StartFrom)
	}
	if f.StartTo != nil {
		where = append(where, "e.start_at<=?")
		args = append(args, *f.StartTo)
	}
	if f.EndFrom != nil {
		where = append(where, "e.end_at>=?")
		args = append(args, *f.EndFrom)
	}
	if f.EndTo != nil {
		where = append(where, "e.end_at<=?")
		args = append(args, *f.EndTo)
	}
	if f.IsAllDay != nil {
		where = append(where, "e.is_all_day=?")
		args = append(args, *f.IsAllDay)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+from+" WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := pagination.OrderBy(p.Sort, "start_at,ASC", eventSortColumns)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM "+from+" WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
