package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
)

// Sortable columns for user listings (request field -> column).
var userSortColumns = map[string]string{
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// UserFilter narrows user listings.  Pointer fields are tri-state: nil
// means "don't filter".
type UserFilter struct {
	Role        string
	IsActive    *bool
	IsBanned    *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,display_name,role,is_active,is_banned,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u    model.User
		name sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.Role,
		&u.IsActive, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.DisplayName = name.String
	return u, nil
}

// Create inserts the user row.  A duplicate email surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, display_name, role, is_active, is_banned) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, nullStr(u.DisplayName), u.Role, u.IsActive, u.IsBanned)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Update persists the mutable user fields.  Email collisions surface as
// ErrEmailExists.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, display_name=?, role=?, is_active=?, is_banned=?, updated_at=NOW() WHERE id=?",
		u.Email, nullStr(u.DisplayName), u.Role, u.IsActive, u.IsBanned, u.ID)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// Delete removes a user; calendars, events and tasks cascade in the schema.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of users matching the filter plus the unpaged total.
func (r *UserRepo) List(ctx context.Context, f UserFilter, p pagination.Request) ([]model.User, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Role != "" {
		where = append(where, "role=?")
		args = append(args, f.Role)
	}
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if f.IsBanned != nil {
		where = append(where, "is_banned=?")
		args = append(args, *f.IsBanned)
	}
	if p.Keyword != "" {
		where = append(where, "(email LIKE ? OR display_name LIKE ?)")
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
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := pagination.OrderBy(p.Sort, "created_at,DESC", userSortColumns)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// isDuplicate detects MySQL's duplicate-entry error (1062) on the unique
// email index.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
