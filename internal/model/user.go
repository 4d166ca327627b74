package model

import "time"

// Roles assignable to a user.  Stored as an ENUM in the users table and
// carried verbatim in the "role" claim of access tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  IDs are uuid-v4 strings generated server-side.  PasswordHash is
// empty for accounts created through social login; bcrypt can never
// verify against an empty hash, so such accounts cannot log in with a
// password.
//
// Fields:
//  ID           – primary key identifier (char 36).
//  Email        – unique email address, stored as received.
//  PasswordHash – bcrypt hashed password, empty for social-only accounts.
//  DisplayName  – optional display name.
//  Role         – USER or ADMIN.
//  IsActive     – whether the account is active.
//  IsBanned     – whether the account is banned.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name (nullable, empty when unset)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	IsBanned     bool      // users.is_banned
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
