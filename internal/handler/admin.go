package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/httperr"
	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/queue"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// AdminHandler serves the account-management endpoints under /admin.
// Every route here sits behind RequireAdmin.
type AdminHandler struct {
	Users UserStore
}

type roleChangeRequest struct {
	Role string `json:"role"`
}

// ChangeRole sets a user's role to USER or ADMIN.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	var req roleChangeRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "role must be USER or ADMIN")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	}
	u.Role = req.Role
	if err := h.Users.Update(ctx, &u); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update user")
	}
	notifyAdminAction(queue.ActionRoleChange, u, actor.ID)
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// Delete removes a user account.  Admins cannot delete themselves.
func (h *AdminHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	id := c.Param("id")
	if id == actor.ID {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "cannot delete your own account")
	}
	err := h.Users.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

// Ban flags an account as banned.  Admins cannot ban themselves.
func (h *AdminHandler) Ban(c echo.Context) error {
	return h.setState(c, "cannot ban your own account", func(u *model.User) string {
		u.IsBanned = true
		return queue.ActionBan
	})
}

// Unban clears the banned flag.
func (h *AdminHandler) Unban(c echo.Context) error {
	return h.setState(c, "", func(u *model.User) string {
		u.IsBanned = false
		return queue.ActionUnban
	})
}

// Activate clears the deactivated state.
func (h *AdminHandler) Activate(c echo.Context) error {
	return h.setState(c, "", func(u *model.User) string {
		u.IsActive = true
		return ""
	})
}

// Deactivate disables an account.  Admins cannot deactivate themselves.
func (h *AdminHandler) Deactivate(c echo.Context) error {
	return h.setState(c, "cannot deactivate your own account", func(u *model.User) string {
		u.IsActive = false
		return ""
	})
}

// setState loads the :id user, applies mutate, and persists.  selfGuard,
// when non-empty, forbids the action against the actor's own account.
// mutate returns the activity action to publish, or "" for none.
func (h *AdminHandler) setState(c echo.Context, selfGuard string, mutate func(*model.User) string) error {
	actor, _ := middleware.CurrentUser(c)
	id := c.Param("id")
	if selfGuard != "" && id == actor.ID {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, selfGuard)
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	}
	action := mutate(&u)
	if err := h.Users.Update(ctx, &u); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update user")
	}
	if action != "" {
		notifyAdminAction(action, u, actor.ID)
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

func notifyAdminAction(action string, u model.User, actorID string) {
	event := queue.AuthActivityEvent{
		Action:  action,
		UserID:  u.ID,
		Email:   u.Email,
		Role:    u.Role,
		ActorID: actorID,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.PublishAuthActivity(ctx, event)
	}()
}
