// Package auth owns token issuance and verification plus the Redis-backed
// session state that decides whether an otherwise valid token is still
// accepted: the per-user refresh-token registry and the access-token
// blacklist.  No other package parses or signs JWTs.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type tags carried in the "type" claim.  A refresh token presented
// where an access token is expected must fail on this tag even though its
// signature is valid, and vice versa.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken is the single failure returned by Decode for any broken
// token: bad signature, wrong algorithm, malformed payload or expiry.
// Callers never see the parser's raw errors.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of every token this service signs.  Access tokens
// carry email and role; refresh tokens carry only the subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 JWTs with a shared secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a TokenService.  TTLs follow the configuration
// units: minutes for access tokens, days for refresh tokens.
func NewTokenService(secret string, accessTTLMin, refreshTTLDays int) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMin) * time.Minute,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// RefreshTTL returns the configured refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs a short-lived access token for the user.
func (s *TokenService) IssueAccess(userID, email, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueRefresh signs a long-lived refresh token carrying only the subject.
func (s *TokenService) IssueRefresh(userID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Decode verifies the signature and expiry of raw and returns its claims.
// Any failure collapses into ErrInvalidToken.  Only HMAC-signed tokens are
// accepted; an attacker switching the algorithm header is rejected before
// the key is ever used.
func (s *TokenService) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExpiryOf returns the expiry of a decodable token, or false when the
// token cannot be decoded or carries no expiry.
func (s *TokenService) ExpiryOf(raw string) (time.Time, bool) {
	claims, err := s.Decode(raw)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
