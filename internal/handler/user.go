package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/httperr"
	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/pagination"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// UserHandler serves profile endpoints and the admin user listing.
type UserHandler struct {
	Users UserStore
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

type updateMeRequest struct {
	DisplayName string `json:"display_name"`
}

// UpdateMe lets the caller change their display name.  Email, role and
// account state are not self-service.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
	}
	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	u.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := h.Users.Update(c.Request().Context(), &u); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update user")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// List returns a filtered page of users.  Admin only.
func (h *UserHandler) List(c echo.Context) error {
	p := pagination.Parse(c)
	f := repository.UserFilter{Role: c.QueryParam("role")}

	if v := c.QueryParam("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "is_active must be a boolean")
		}
		f.IsActive = &b
	}
	if v := c.QueryParam("is_banned"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "is_banned must be a boolean")
		}
		f.IsBanned = &b
	}
	var err error
	if f.CreatedFrom, err = parseTimeOpt(c.QueryParam("created_from")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "created_from is not a valid date")
	}
	if f.CreatedTo, err = parseTimeOpt(c.QueryParam("created_to")); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "created_to is not a valid date")
	}

	users, total, err := h.Users.List(c.Request().Context(), f, p)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not list users")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(newUserResponses(users), p, total))
}

// Get returns one user by id.  Admin only.
func (h *UserHandler) Get(c echo.Context) error {
	u, err := h.Users.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

type adminUpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	IsActive    *bool   `json:"is_active"`
	IsBanned    *bool   `json:"is_banned"`
}

// Update applies a partial admin edit to a user record.  Role changes go
// through the dedicated admin endpoint.
func (h *UserHandler) Update(c echo.Context) error {
	var req adminUpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	}
	if req.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.IsBanned != nil {
		u.IsBanned = *req.IsBanned
	}
	if err := h.Users.Update(ctx, &u); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update user")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}
