package provider

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Firebase ID tokens are JWTs issued by securetoken.google.com with the
// project id as both issuer suffix and audience, so standard OIDC
// discovery and verification apply.
const firebaseIssuerBase = "https://securetoken.google.com/"

// FirebaseVerifier validates Firebase ID tokens for one project.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier discovers the Firebase token issuer for the project
// and prepares a verifier.  Discovery performs a network round-trip, so
// this runs once at startup.
func NewFirebaseVerifier(ctx context.Context, projectID string) (*FirebaseVerifier, error) {
	p, err := oidc.NewProvider(ctx, firebaseIssuerBase+projectID)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{
		verifier: p.Verifier(&oidc.Config{ClientID: projectID}),
	}, nil
}

// Verify checks signature, expiry and audience of the ID token and
// extracts the identity claims.  A leading "Bearer " prefix is tolerated
// since some clients forward the whole header value.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(idToken), "Bearer "))
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Identity{}, err
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := tok.Claims(&claims); err != nil {
		return Identity{}, err
	}
	if claims.Email == "" {
		return Identity{}, ErrNoEmail
	}
	return Identity{Email: claims.Email, Name: claims.Name}, nil
}
