package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/auth"
	"github.com/iliyamo/calendar-suite/internal/httperr"
	"github.com/iliyamo/calendar-suite/internal/middleware"
	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/provider"
	"github.com/iliyamo/calendar-suite/internal/queue"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// IdentityVerifier validates an externally issued ID token and returns the
// identity it asserts.  Implemented by provider.FirebaseVerifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (provider.Identity, error)
}

// CodeExchanger drives an OAuth authorization-code flow.  Implemented by
// provider.GoogleOAuth.
type CodeExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (provider.Identity, error)
}

// AuthHandler owns signup, login, token refresh, logout and social login.
// Firebase/Google stay nil when the provider is not configured; their
// endpoints then answer 503.
type AuthHandler struct {
	Users      UserStore
	Tokens     *auth.TokenService
	Sessions   *auth.SessionRegistry
	Blacklist  *auth.Blacklist
	Firebase   IdentityVerifier
	Google     CodeExchanger
	BcryptCost int
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Signup registers a new account and logs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "a valid email is required")
	}
	if len(req.Password) < 8 {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not process password")
	}

	u := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         model.RoleUser,
		IsActive:     true,
	}
	ctx := c.Request().Context()
	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.JSON(c, http.StatusConflict, httperr.CodeConflict, "email already registered")
		}
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not create user")
	}

	resp, err := h.issueSession(ctx, u)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not establish session")
	}
	h.notify(queue.ActionSignup, u, "", "")
	return c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a fresh token pair.  The password
// check runs first; account-state responses must never be reachable with a
// wrong password, so a banned account with bad credentials still reads as
// a plain credential failure.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "invalid request body")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid email or password")
	}
	if u.IsBanned {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "user account is banned")
	}
	if !u.IsActive {
		return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "user account is deactivated")
	}

	resp, err := h.issueSession(ctx, u)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not establish session")
	}
	h.notify(queue.ActionLogin, u, "", "")
	return c.JSON(http.StatusOK, resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the presented token must match the
// registry exactly, and a successful rotation invalidates it for good.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "refresh_token is required")
	}

	claims, err := h.Tokens.Decode(req.RefreshToken)
	if err != nil {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid refresh token")
	}
	if claims.Type != auth.TypeRefresh || claims.Subject == "" {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid refresh token")
	}

	ctx := c.Request().Context()
	ok, err := h.Sessions.Validate(ctx, claims.Subject, req.RefreshToken)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not verify session")
	}
	if !ok {
		// Never issued, already rotated, or revoked by logout.
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid refresh token")
	}

	u, err := h.Users.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	}

	if err := h.Sessions.Revoke(ctx, u.ID); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not rotate session")
	}
	resp, err := h.issueSession(ctx, u)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not establish session")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's session and blacklists the presenting
// access token for its remaining lifetime.  Idempotent: logging out twice
// with different access tokens is fine, and a missing session is not an
// error.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
	}
	ctx := c.Request().Context()
	if err := h.Sessions.Revoke(ctx, u.ID); err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not revoke session")
	}
	if raw := middleware.CurrentToken(c); raw != "" {
		if exp, ok := h.Tokens.ExpiryOf(raw); ok {
			if err := h.Blacklist.Add(ctx, raw, time.Until(exp)); err != nil {
				return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not revoke token")
			}
		}
	}
	h.notify(queue.ActionLogout, u, "", "")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "missing bearer token")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

type firebaseRequest struct {
	IDToken string `json:"id_token"`
}

// Firebase logs a user in with a Firebase-issued ID token.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.Firebase == nil {
		return httperr.JSON(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, "firebase login is not configured")
	}
	var req firebaseRequest
	if err := c.Bind(&req); err != nil || req.IDToken == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "id_token is required")
	}
	ident, err := h.Firebase.Verify(c.Request().Context(), req.IDToken)
	if err != nil {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid provider token")
	}
	return h.socialLogin(c, ident, "firebase")
}

// GoogleLogin starts the Google OAuth code flow by handing the client the
// consent-screen URL.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if h.Google == nil {
		return httperr.JSON(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, "google login is not configured")
	}
	state := uuid.NewString()
	return c.JSON(http.StatusOK, echo.Map{
		"auth_url": h.Google.AuthURL(state),
		"state":    state,
	})
}

// GoogleCallback finishes the Google OAuth code flow.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if h.Google == nil {
		return httperr.JSON(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, "google login is not configured")
	}
	code := c.QueryParam("code")
	if code == "" {
		return httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidation, "code query parameter is required")
	}
	ident, err := h.Google.Exchange(c.Request().Context(), code)
	if err != nil {
		return httperr.JSON(c, http.StatusUnauthorized, httperr.CodeUnauthorized, "invalid provider token")
	}
	return h.socialLogin(c, ident, "google")
}

// socialLogin upserts the provider-verified identity and issues a native
// token pair.  Accounts created here carry an empty password hash, so a
// password login against them always fails.
func (h *AuthHandler) socialLogin(c echo.Context, ident provider.Identity, providerName string) error {
	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, ident.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = model.User{
			ID:          uuid.NewString(),
			Email:       ident.Email,
			DisplayName: ident.Name,
			Role:        model.RoleUser,
			IsActive:    true,
		}
		if err := h.Users.Create(ctx, &u); err != nil {
			return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not create user")
		}
	case err != nil:
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not load user")
	default:
		if u.IsBanned {
			return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "user account is banned")
		}
		if !u.IsActive {
			return httperr.JSON(c, http.StatusForbidden, httperr.CodeForbidden, "user account is deactivated")
		}
		if ident.Name != "" && ident.Name != u.DisplayName {
			u.DisplayName = ident.Name
			if err := h.Users.Update(ctx, &u); err != nil {
				return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not update user")
			}
		}
	}

	resp, err := h.issueSession(ctx, u)
	if err != nil {
		return httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "could not establish session")
	}
	h.notify(queue.ActionSocialLogin, u, "", providerName)
	return c.JSON(http.StatusOK, resp)
}

// issueSession signs a fresh access+refresh pair and records the refresh
// token as the user's single valid session.
func (h *AuthHandler) issueSession(ctx context.Context, u model.User) (tokenResponse, error) {
	access, err := h.Tokens.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		return tokenResponse{}, err
	}
	refresh, err := h.Tokens.IssueRefresh(u.ID)
	if err != nil {
		return tokenResponse{}, err
	}
	if err := h.Sessions.Store(ctx, u.ID, refresh, h.Tokens.RefreshTTL()); err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		User:         newUserResponse(u),
	}, nil
}

// notify publishes an auth activity event without blocking the request.
func (h *AuthHandler) notify(action string, u model.User, actorID, providerName string) {
	event := queue.AuthActivityEvent{
		Action:   action,
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		ActorID:  actorID,
		Provider: providerName,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.PublishAuthActivity(ctx, event)
	}()
}
