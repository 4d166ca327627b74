package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/calendar-suite/internal/auth"
	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/provider"
)

type fakeVerifier struct {
	ident provider.Identity
	err   error
}

func (f *fakeVerifier) Verify(context.Context, string) (provider.Identity, error) {
	return f.ident, f.err
}

type authApp struct {
	e     *echo.Echo
	users *fakeUserStore
	h     *AuthHandler
}

func newAuthApp(t *testing.T) *authApp {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	users := newFakeUserStore()
	tokens := auth.NewTokenService("test-secret", 30, 7)
	blacklist := auth.NewBlacklist(rdb)
	h := &AuthHandler{
		Users:      users,
		Tokens:     tokens,
		Sessions:   auth.NewSessionRegistry(rdb),
		Blacklist:  blacklist,
		BcryptCost: 4,
	}

	e := echo.New()
	requireUser := middleware.RequireUser(tokens, blacklist, users)
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout, requireUser)
	e.GET("/auth/me", h.Me, requireUser)
	e.POST("/auth/firebase", h.FirebaseLogin)
	e.GET("/auth/google/login", h.GoogleLogin)
	return &authApp{e: e, users: users, h: h}
}

func (a *authApp) post(path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *authApp) get(path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decodeTokens(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh string) {
	t.Helper()
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)
	return body.AccessToken, body.RefreshToken
}

func TestSignupAndLogin(t *testing.T) {
	a := newAuthApp(t)

	rec := a.post("/auth/signup", `{"email":"a@x.com","password":"password123","display_name":"Alice"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	access, _ := decodeTokens(t, rec)

	// The pair from signup works immediately.
	rec = a.get("/auth/me", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a@x.com"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.post("/auth/login", `{"email":"a@x.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeTokens(t, rec)
}

func TestSignupValidation(t *testing.T) {
	a := newAuthApp(t)

	cases := []string{
		`{"email":"","password":"password123"}`,
		`{"email":"not-an-email","password":"password123"}`,
		`{"email":"a@x.com","password":"short"}`,
		`{not json`,
	}
	for _, body := range cases {
		rec := a.post("/auth/signup", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	a := newAuthApp(t)

	body := `{"email":"a@x.com","password":"password123"}`
	require.Equal(t, http.StatusCreated, a.post("/auth/signup", body, "").Code)

	rec := a.post("/auth/signup", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFLICT")
}

func TestLoginWrongCredentials(t *testing.T) {
	a := newAuthApp(t)
	a.post("/auth/signup", `{"email":"a@x.com","password":"password123"}`, "")

	rec := a.post("/auth/login", `{"email":"a@x.com","password":"wrongwrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec2 := a.post("/auth/login", `{"email":"nobody@x.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)

	// Unknown user and wrong password are indistinguishable.
	assert.JSONEq(t, stripTimestamp(rec.Body.String()), stripTimestamp(rec2.Body.String()))
}

// stripTimestamp blanks the envelope timestamp so two error bodies can be
// compared for everything else.
func stripTimestamp(body string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return body
	}
	delete(m, "timestamp")
	out, _ := json.Marshal(m)
	return string(out)
}

func TestLoginAccountState(t *testing.T) {
	a := newAuthApp(t)
	a.post("/auth/signup", `{"email":"a@x.com","password":"password123"}`, "")

	u, err := a.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	u.IsBanned = true
	require.NoError(t, a.users.Update(context.Background(), &u))

	// Correct password against a banned account: 403.
	rec := a.post("/auth/login", `{"email":"a@x.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Wrong password against a banned account: still 401.  The password
	// check comes first so account state never leaks past bad credentials.
	rec = a.post("/auth/login", `{"email":"a@x.com","password":"wrongwrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotation(t *testing.T) {
	a := newAuthApp(t)
	rec := a.post("/auth/signup", `{"email":"a@x.com","password":"password123"}`, "")
	_, refresh := decodeTokens(t, rec)

	rec = a.post("/auth/refresh", `{"refresh_token":"`+refresh+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access2, refresh2 := decodeTokens(t, rec)
	assert.NotEqual(t, refresh, refresh2)

	// The rotated-out token is single-use: a second refresh fails.
	rec = a.post("/auth/refresh", `{"refresh_token":"`+refresh+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The new pair works.
	assert.Equal(t, http.StatusOK, a.get("/auth/me", access2).Code)
	rec = a.post("/auth/refresh", `{"refresh_token":"`+refresh2+`"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	a := newAuthApp(t)
	rec := a.post("/auth/signup", `{"email":"a@x.com","password":"password123"}`, "")
	access, _ := decodeTokens(t, rec)

	rec = a.post("/auth/refresh", `{"refresh_token":"`+access+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code,
		"an access token must not pass the refresh type check")
}

func TestRefreshRejectsGarbage(t *testing.T) {
	a := newAuthApp(t)

	rec := a.post("/auth/refresh", `{"refresh_token":"not.a.token"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.post("/auth/refresh", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutInvalidatesSessionAndToken(t *testing.T) {
	a := newAuthApp(t)
	rec := a.post("/auth/signup", `{"email":"a@x.com","password":"password123"}`, "")
	access, refresh := decodeTokens(t, rec)

	require.Equal(t, http.StatusOK, a.post("/auth/logout", "", access).Code)

	// The presenting access token is blacklisted for its remaining life.
	assert.Equal(t, http.StatusUnauthorized, a.get("/auth/me", access).Code)

	// The refresh token died with the session.
	rec = a.post("/auth/refresh", `{"refresh_token":"`+refresh+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFirebaseLoginUnconfigured(t *testing.T) {
	a := newAuthApp(t)

	rec := a.post("/auth/firebase", `{"id_token":"whatever"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")

	rec = a.get("/auth/google/login", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFirebaseLoginCreatesSocialOnlyAccount(t *testing.T) {
	a := newAuthApp(t)
	a.h.Firebase = &fakeVerifier{ident: provider.Identity{Email: "s@x.com", Name: "Sam"}}

	rec := a.post("/auth/firebase", `{"id_token":"provider-token"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access, _ := decodeTokens(t, rec)
	assert.Equal(t, http.StatusOK, a.get("/auth/me", access).Code)

	// Social-only accounts have no usable password.
	for _, password := range []string{"", "anything-at-all"} {
		rec := a.post("/auth/login", `{"email":"s@x.com","password":"`+password+`"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestFirebaseLoginUpdatesDisplayName(t *testing.T) {
	a := newAuthApp(t)
	a.h.Firebase = &fakeVerifier{ident: provider.Identity{Email: "s@x.com", Name: "Sam"}}
	require.Equal(t, http.StatusOK, a.post("/auth/firebase", `{"id_token":"tok"}`, "").Code)

	a.h.Firebase = &fakeVerifier{ident: provider.Identity{Email: "s@x.com", Name: "Samuel"}}
	require.Equal(t, http.StatusOK, a.post("/auth/firebase", `{"id_token":"tok"}`, "").Code)

	u, err := a.users.GetByEmail(context.Background(), "s@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Samuel", u.DisplayName)
}

func TestFirebaseLoginBadProviderToken(t *testing.T) {
	a := newAuthApp(t)
	a.h.Firebase = &fakeVerifier{err: provider.ErrNoEmail}

	rec := a.post("/auth/firebase", `{"id_token":"bad"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
