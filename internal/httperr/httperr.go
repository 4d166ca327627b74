// Package httperr renders the API's common error envelope.  Every error
// response carries a stable machine-readable code next to a human message:
//
//	{"timestamp": "...", "path": "/api/v1/...", "status": 401,
//	 "code": "UNAUTHORIZED", "message": "invalid token"}
//
// Handlers and middleware never leak internals beyond the message string.
package httperr

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Stable error codes, one per taxonomy entry.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// Envelope is the wire form of an error response.
type Envelope struct {
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// JSON writes the error envelope with the given status and code.
func JSON(c echo.Context, status int, code, message string) error {
	return JSONDetails(c, status, code, message, nil)
}

// JSONDetails writes the error envelope including a details object.
func JSONDetails(c echo.Context, status int, code, message string, details map[string]any) error {
	return c.JSON(status, Envelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request().URL.Path,
		Status:    status,
		Code:      code,
		Message:   message,
		Details:   details,
	})
}
