package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/auth"
	"github.com/iliyamo/calendar-suite/internal/httperr"
	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// Context keys set by RequireUser for downstream handlers.
const (
	ContextUserKey  = "current_user"
	ContextTokenKey = "access_token"
)

// UserLoader is the user lookup access control needs.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// RequireUser authenticates the request from its Authorization header.
// The presented token must be a well-formed access token that is not
// blacklisted, and must resolve to a live account.  Checks run in order:
// bearer present -> signature/expiry -> type -> blacklist -> user exists ->
// active -> not banned.  Credential failures are 401, account-state
// failures are 403.  On success the resolved user and the raw token are
// stored on the echo context.
func RequireUser(tokens *auth.TokenService, blacklist *auth.Blacklist, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if raw == "" {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
			}

			claims, err := tokens.Decode(raw)
			if err != nil {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid or expired token")
			}
			if claims.Type != auth.TypeAccess {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid token type")
			}

			ctx := c.Request().Context()
			revoked, err := blacklist.Contains(ctx, raw)
			if err != nil {
				return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not verify token state")
			}
			if revoked {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "token has been revoked")
			}

			u, err := users.GetByID(ctx, claims.Subject)
			if errors.Is(err, repository.ErrNotFound) {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "user not found")
			}
			if err != nil {
				return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
			}

			// Deactivation is checked before ban: a deactivated account
			// reads as deactivated even when it is also banned.
			if !u.IsActive {
				return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "user account is deactivated")
			}
			if u.IsBanned {
				return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "user account is banned")
			}

			c.Set(ContextUserKey, u)
			c.Set(ContextTokenKey, raw)
			return next(c)
		}
	}
}

// RequireAdmin gates a route group to ADMIN users.  It must run after
// RequireUser, which puts the resolved user on the context.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
			}
			if u.Role != model.RoleAdmin {
				return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "admin privileges required")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user RequireUser stored on the context.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ContextUserKey).(model.User)
	return u, ok
}

// CurrentToken returns the raw access token the request authenticated with.
func CurrentToken(c echo.Context) string {
	raw, _ := c.Get(ContextTokenKey).(string)
	return raw
}
