// Package authz performs ownership checks on the resources served by the
// API. Every resource a user can fetch or mutate belongs to exactly one
// user, so the check reduces to comparing owner IDs.
package authz

import (
	"context"

	"github.com/scribehq/scribe/server/contexts/viewer"
)

// Actions performed on owned resources, named in forbidden-error logs.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// Owned is the interface implemented by resources that belong to a single
// user.
type Owned interface {
	AuthzOwnerID() string
}

// Authorize checks that the user in ctx owns the given resource. It returns
// a Forbidden error when the resource belongs to somebody else, and an
// auth-required error when there is no user in the context.
func Authorize(ctx context.Context, resource Owned, action string) error {
	vc, ok := viewer.FromContext(ctx)
	if !ok || !vc.IsLoggedIn() {
		return ForbiddenWithInternal("no viewer in context", nil, resource, action)
	}
	if resource.AuthzOwnerID() != vc.UserID() {
		return ForbiddenWithInternal("resource owned by another user", vc.User, resource, action)
	}
	return nil
}

// UserFromContext returns the authenticated user in ctx, or a Forbidden
// error when the context carries no viewer.
func UserFromContext(ctx context.Context) (*viewer.Viewer, error) {
	vc, ok := viewer.FromContext(ctx)
	if !ok || !vc.IsLoggedIn() {
		return nil, ForbiddenWithInternal("no viewer in context", nil, nil, nil)
	}
	return &vc, nil
}
