package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
)

var taskSortColumns = map[string]string{
	"title":      "t.title",
	"due_at":     "t.due_at",
	"status":     "t.status",
	"priority":   "t.priority",
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
}

// TaskFilter narrows task listings; see EventFilter for OwnerID semantics.
type TaskFilter struct {
	OwnerID    string
	CalendarID string
	Status     string
	Priority   string
	DueFrom    *time.Time
	DueTo      *time.Time
}

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskColumns = "t.id,t.calendar_id,t.title,t.description,t.due_at,t.completed_at,t.status,t.priority,t.created_at,t.updated_at"

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var (
		t              model.Task
		desc, priority sql.NullString
		due, completed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.CalendarID, &t.Title, &desc, &due, &completed,
		&t.Status, &priority, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}
	t.Description = desc.String
	t.Priority = priority.String
	if due.Valid {
		d := due.Time
		t.DueAt = &d
	}
	if completed.Valid {
		c := completed.Time
		t.CompletedAt = &c
	}
	return t, nil
}

func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (id, calendar_id, title, description, due_at, completed_at, status, priority) VALUES (?,?,?,?,?,?,?,?)",
		t.ID, t.CalendarID, t.Title, nullStr(t.Description), nullTime(t.DueAt), nullTime(t.CompletedAt), t.Status, nullStr(t.Priority))
	return err
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks t WHERE t.id=? LIMIT 1", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET title=?, description=?, due_at=?, completed_at=?, status=?, priority=?, updated_at=NOW() WHERE id=?",
		t.Title, nullStr(t.Description), nullTime(t.DueAt), nullTime(t.CompletedAt), t.Status, nullStr(t.Priority), t.ID)
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of tasks matching the filter plus the total.
func (r *TaskRepo) List(ctx context.Context, f TaskFilter, p pagination.Request) ([]model.Task, int64, error) {
	from := "tasks t"
	where := []string{"1=1"}
	args := []any{}
	if f.OwnerID != "" {
		from = "tasks t JOIN calendars c ON c.id = t.calendar_id"
		where = append(where, "c.user_id=?")
		args = append(args, f.OwnerID)
	}
	if f.CalendarID != "" {
		where = append(where, "t.calendar_id=?")
		args = append(args, f.CalendarID)
	}
	if f.Status != "" {
		where = append(where, "t.status=?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "t.priority=?")
		args = append(args, f.Priority)
	}
	if p.Keyword != "" {
		where = append(where, "(t.title LIKE ? OR t.description LIKE ?)")
		kw := "%" + p.Keyword + "%"
		args = append(args, kw, kw)
	}
	if f.DueFrom != nil {
		where = append(where, "t.due_at>=?")
		args = append(args, *f.DueFrom)
	}
	if f.DueTo != nil {
		where = append(where, "t.due_at<=?")
		args = append(args, *f.DueTo)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+from+" WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := pagination.OrderBy(p.Sort, "due_at,ASC", taskSortColumns)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM "+from+" WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
