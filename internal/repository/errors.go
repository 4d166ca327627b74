// Package repository implements raw-SQL data access for users, calendars,
// events and tasks.  Sentinel errors defined here let handlers map failure
// scenarios onto HTTP responses without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a point lookup matches no row.  Handlers
// translate this into HTTP 404 (or 401 during token resolution).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update collides with the
// unique email constraint.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")
