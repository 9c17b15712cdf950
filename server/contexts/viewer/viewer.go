// Package viewer enables setting and reading the current
// user contexts
package viewer

import (
	"context"

	"github.com/scribehq/scribe/server/scribe"
)

type key int

const viewerKey key = 0

// NewContext creates a new context with the current user information.
func NewContext(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// FromContext returns the current user information if present.
func FromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(Viewer)
	return v, ok
}

// Viewer holds information about the current
// user and the user's session
type Viewer struct {
	User    *scribe.User
	Session *scribe.Session
}

// UserID is a helper that enables quick access to the user ID of the current
// user.
func (v Viewer) UserID() string {
	if v.User != nil {
		return v.User.ID
	}
	return ""
}

// Email is a helper that enables quick access to the email of the current
// user.
func (v Viewer) Email() string {
	if v.User != nil {
		return v.User.Email
	}
	return ""
}

// SessionID returns the ID of the session used by the current viewer.
func (v Viewer) SessionID() uint {
	if v.Session != nil {
		return v.Session.ID
	}
	return 0
}

// IsLoggedIn determines whether the current viewer is logged in.
func (v Viewer) IsLoggedIn() bool {
	return v.User != nil && v.Session != nil
}
