package provider

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// GoogleOAuth drives the authorization-code login flow: build the consent
// URL, exchange the returned code for tokens, and verify the bundled ID
// token to obtain the user's identity.
type GoogleOAuth struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleOAuth discovers Google's OIDC endpoints and prepares the
// oauth2 exchange config.  Runs once at startup.
func NewGoogleOAuth(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleOAuth, error) {
	p, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	return &GoogleOAuth{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: p.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURL returns the consent-screen URL the client should be redirected to.
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// Exchange swaps the authorization code for a token set and verifies the
// ID token it contains.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, err
	}
	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return Identity{}, errors.New("token response carried no id_token")
	}
	idTok, err := g.verifier.Verify(ctx, rawID)
	if err != nil {
		return Identity{}, err
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idTok.Claims(&claims); err != nil {
		return Identity{}, err
	}
	if claims.Email == "" {
		return Identity{}, ErrNoEmail
	}
	return Identity{Email: claims.Email, Name: claims.Name}, nil
}
