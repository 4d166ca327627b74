// Package provider integrates the external identity providers (Firebase,
// Google OAuth).  Providers are black boxes with a narrow contract: they
// either yield a verified {email, name} pair or fail.  Token issuance for
// the API itself always stays with the auth package.
package provider

import "errors"

// Identity is the verified claim set a provider hands back.
type Identity struct {
	Email string
	Name  string
}

// ErrNoEmail is returned when a provider token verifies but carries no
// email claim; the account cannot be matched or created without one.
var ErrNoEmail = errors.New("no email claim in provider token")
