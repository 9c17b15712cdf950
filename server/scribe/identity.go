package scribe

import "context"

// AuthSession is the result of exchanging an OAuth authorization code with
// the identity provider. ProviderRefreshToken is only present when the grant
// included offline calendar access; a plain login carries none.
type AuthSession struct {
	UserID    string
	Email     string
	UserName  string
	SessionID string

	ProviderRefreshToken string
	// ExpiresIn is the provider access-token lifetime in seconds. Zero means
	// the provider omitted it; callers apply the default.
	ExpiresIn int
}

// IdentityProvider is the boundary to the external identity service that
// performs the OAuth code exchange. Exchange failures are fatal to the
// callback flow; everything after a successful exchange is best-effort.
type IdentityProvider interface {
	ExchangeCodeForSession(ctx context.Context, code string) (*AuthSession, error)
}

// DefaultTokenExpirySeconds is used when the provider response omits
// expires_in.
const DefaultTokenExpirySeconds = 3600
