package core

import "context"

// IdentityProvider authenticates a username/password pair through an
// administrative password grant. Any error means the login failed.
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (Tokens, error)
}

// Claims is the identity extracted from a verified bearer token.
type Claims struct {
	Subject  string
	Username string
}

// TokenVerifier validates bearer tokens presented to the gateway API.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}
