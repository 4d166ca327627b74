package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
)

var calendarSortColumns = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// CalendarFilter narrows calendar listings.  UserID is mandatory for
// non-admin callers and optional for admins (empty means all users).
type CalendarFilter struct {
	UserID      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type CalendarRepo struct{ DB *sql.DB }

func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{DB: db} }

const calendarColumns = "id,user_id,title,description,color,created_at,updated_at"

func scanCalendar(row interface{ Scan(...any) error }) (model.Calendar, error) {
	var (
		c           model.Calendar
		desc, color sql.NullString
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &desc, &color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Calendar{}, err
	}
	c.Description = desc.String
	c.Color = color.String
	return c, nil
}

func (r *CalendarRepo) Create(ctx context.Context, c *model.Calendar) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO calendars (id, user_id, title, description, color) VALUES (?,?,?,?,?)",
		c.ID, c.UserID, c.Title, nullStr(c.Description), nullStr(c.Color))
	return err
}

func (r *CalendarRepo) GetByID(ctx context.Context, id string) (model.Calendar, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+calendarColumns+" FROM calendars WHERE id=? LIMIT 1", id)
	c, err := scanCalendar(row)
	if err == sql.ErrNoRows {
		return model.Calendar{}, ErrNotFound
	}
	return c, err
}

func (r *CalendarRepo) Update(ctx context.Context, c *model.Calendar) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE calendars SET title=?, description=?, color=?, updated_at=NOW() WHERE id=?",
		c.Title, nullStr(c.Description), nullStr(c.Color), c.ID)
	return err
}

func (r *CalendarRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM calendars WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of calendars matching the filter plus the total.
// Keyword searches title and description.
func (r *CalendarRepo) List(ctx context.Context, f CalendarFilter, p pagination.Request) ([]model.Calendar, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.UserID != "" {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if p.Keyword != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		kw := "%" + p.Keyword + "%"
		args = append(args, kw, kw)
	}
	if f.CreatedFrom != nil {
		where = append(where, "created_at>=?")
		args = append(args, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		where = append(where, "created_at<=?")
		args = append(args, *f.CreatedTo)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM calendars WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := pagination.OrderBy(p.Sort, "created_at,DESC", calendarSortColumns)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+calendarColumns+" FROM calendars WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
