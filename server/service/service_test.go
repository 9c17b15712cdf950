package service

import (
	"context"
	"testing"

	"github.com/WatchBeam/clock"
	kitlog "github.com/go-kit/log"
	"github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/contexts/viewer"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, ds scribe.Datastore, identity scribe.IdentityProvider, c clock.Clock) *Service {
	t.Helper()
	if c == nil {
		c = clock.C
	}
	svc, err := NewService(ds, identity, kitlog.NewNopLogger(), config.TestConfig(), c)
	require.NoError(t, err)
	return svc.(*Service)
}

func testUser(id string) *scribe.User {
	return &scribe.User{
		ID:    id,
		Email: id + "@example.com",
		Name:  "Test User",
	}
}

// testUserContext returns a context carrying a logged-in viewer for user.
func testUserContext(user *scribe.User) context.Context {
	return viewer.NewContext(context.Background(), viewer.Viewer{
		User:    user,
		Session: &scribe.Session{ID: 1, UserID: user.ID, Key: "sessionkey"},
	})
}
