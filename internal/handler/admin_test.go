package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/model"
)

type adminApp struct {
	e     *echo.Echo
	users *fakeUserStore
}

func newAdminApp(t *testing.T) *adminApp {
	t.Helper()
	users := newFakeUserStore()
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID: "root", Email: "root@x.com", Role: model.RoleAdmin, IsActive: true,
	}))
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID: "alice", Email: "alice@x.com", Role: model.RoleUser, IsActive: true,
	}))

	identify := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, _ := users.GetByID(c.Request().Context(), "root")
			c.Set(middleware.ContextUserKey, u)
			return next(c)
		}
	}

	h := &AdminHandler{Users: users}
	uh := &UserHandler{Users: users}
	e := echo.New()
	g := e.Group("/admin", identify)
	g.GET("/users", uh.List)
	g.GET("/users/:id", uh.Get)
	g.PATCH("/users/:id/role", h.ChangeRole)
	g.DELETE("/users/:id", h.Delete)
	g.POST("/users/:id/ban", h.Ban)
	g.POST("/users/:id/unban", h.Unban)
	g.POST("/users/:id/activate", h.Activate)
	g.POST("/users/:id/deactivate", h.Deactivate)
	return &adminApp{e: e, users: users}
}

func (a *adminApp) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestAdminListUsers(t *testing.T) {
	a := newAdminApp(t)

	rec := a.do(http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		TotalElements int64 `json:"total_elements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.TotalElements)

	rec = a.do(http.MethodGet, "/admin/users?role=ADMIN", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestAdminChangeRole(t *testing.T) {
	a := newAdminApp(t)

	rec := a.do(http.MethodPatch, "/admin/users/alice/role", `{"role":"ADMIN"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := a.users.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	rec = a.do(http.MethodPatch, "/admin/users/alice/role", `{"role":"OVERLORD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPatch, "/admin/users/ghost/role", `{"role":"USER"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminBanUnban(t *testing.T) {
	a := newAdminApp(t)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/admin/users/alice/ban", "").Code)
	u, _ := a.users.GetByID(context.Background(), "alice")
	assert.True(t, u.IsBanned)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/admin/users/alice/unban", "").Code)
	u, _ = a.users.GetByID(context.Background(), "alice")
	assert.False(t, u.IsBanned)
}

func TestAdminActivateDeactivate(t *testing.T) {
	a := newAdminApp(t)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/admin/users/alice/deactivate", "").Code)
	u, _ := a.users.GetByID(context.Background(), "alice")
	assert.False(t, u.IsActive)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/admin/users/alice/activate", "").Code)
	u, _ = a.users.GetByID(context.Background(), "alice")
	assert.True(t, u.IsActive)
}

func TestAdminSelfGuards(t *testing.T) {
	a := newAdminApp(t)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, "/admin/users/root", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/admin/users/root/ban", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/admin/users/root/deactivate", "").Code)

	// Still present and untouched.
	u, err := a.users.GetByID(context.Background(), "root")
	require.NoError(t, err)
	assert.False(t, u.IsBanned)
	assert.True(t, u.IsActive)
}

func TestAdminDeleteUser(t *testing.T) {
	a := newAdminApp(t)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/admin/users/alice", "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/admin/users/alice", "").Code)
}
