package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/mock"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WatchBeam/clock"
)

func newTestHandler(t *testing.T, ds scribe.Datastore, identity scribe.IdentityProvider) http.Handler {
	t.Helper()
	svc, err := NewService(ds, identity, kitlog.NewNopLogger(), config.TestConfig(), clock.C)
	require.NoError(t, err)
	return MakeHandler(svc, config.TestConfig(), kitlog.NewNopLogger())
}

// sessionStore wires the mock datastore for a logged-in user with the given
// bearer key.
func sessionStore(ds *mock.Store, key string, user *scribe.User) {
	ds.SessionByKeyFunc = func(ctx context.Context, gotKey string) (*scribe.Session, error) {
		if gotKey != key {
			return nil, &notFoundTestError{}
		}
		return &scribe.Session{ID: 1, UserID: user.ID, Key: key}, nil
	}
	ds.MarkSessionAccessedFunc = func(ctx context.Context, session *scribe.Session) error {
		return nil
	}
	ds.UserByIDFunc = func(ctx context.Context, id string) (*scribe.User, error) {
		return user, nil
	}
}

func TestHandlerAuthRequired(t *testing.T) {
	ds := new(mock.Store)
	h := newTestHandler(t, ds, nil)

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scribe/meetings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// bogus token
	sessionStore(ds, "goodkey", testUser("u1"))
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/scribe/meetings", nil)
	req.Header.Set("Authorization", "Bearer badkey")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerListMeetings(t *testing.T) {
	ds := new(mock.Store)
	sessionStore(ds, "goodkey", testUser("u1"))
	ds.ListMeetingsFunc = func(ctx context.Context, userID string, opt scribe.ListMeetingsOptions) ([]*scribe.Meeting, error) {
		assert.Equal(t, "u1", userID)
		assert.Equal(t, scribe.MeetingStatusCompleted, opt.Status)
		assert.Equal(t, uint(10), opt.Limit)
		return []*scribe.Meeting{{ID: "m1", UserID: userID, Status: scribe.MeetingStatusCompleted}}, nil
	}

	h := newTestHandler(t, ds, nil)

	for _, version := range []string{"v1", "latest"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/"+version+"/scribe/meetings?status=completed&limit=10", nil)
		req.Header.Set("Authorization", "Bearer goodkey")
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, version)
		var resp listMeetingsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Meetings, 1)
		assert.Equal(t, "m1", resp.Meetings[0].ID)
	}
}

func TestHandlerJoinMeetingValidation(t *testing.T) {
	ds := new(mock.Store)
	sessionStore(ds, "goodkey", testUser("u1"))
	h := newTestHandler(t, ds, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/scribe/meetings/join",
		strings.NewReader(`{"meeting_url": "https://zoom.us/j/123"}`))
	req.Header.Set("Authorization", "Bearer goodkey")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var je struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &je))
	assert.Equal(t, "Validation Failed", je.Message)
	assert.False(t, ds.NewMeetingFuncInvoked)
}

func TestHandlerOAuthCallbackRedirects(t *testing.T) {
	ds := new(mock.Store)
	h := newTestHandler(t, ds, &mockIdentity{err: errors.New("bad code")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scribe/auth/callback?code=expired", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/error", rec.Header().Get("Location"))
}

func TestHandlerOAuthCallbackRequiresCode(t *testing.T) {
	ds := new(mock.Store)
	h := newTestHandler(t, ds, &mockIdentity{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scribe/auth/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerMeetingByID(t *testing.T) {
	ds := new(mock.Store)
	sessionStore(ds, "goodkey", testUser("u1"))
	ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
		if id != "m1" {
			return nil, &notFoundTestError{}
		}
		return &scribe.Meeting{ID: id, UserID: "u1"}, nil
	}

	h := newTestHandler(t, ds, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/scribe/meetings/m1", nil)
	req.Header.Set("Authorization", "Bearer goodkey")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/v1/scribe/meetings/nope", nil)
	req.Header.Set("Authorization", "Bearer goodkey")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerTimelineRouteBeforeMeetingID(t *testing.T) {
	ds := new(mock.Store)
	sessionStore(ds, "goodkey", testUser("u1"))
	ds.ListMeetingsFunc = func(ctx context.Context, userID string, opt scribe.ListMeetingsOptions) ([]*scribe.Meeting, error) {
		return nil, nil
	}
	ds.ListUpcomingCalendarEventsFunc = func(ctx context.Context, userID string, now time.Time) ([]*scribe.CalendarEvent, error) {
		return nil, nil
	}

	h := newTestHandler(t, ds, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/scribe/meetings/timeline", nil)
	req.Header.Set("Authorization", "Bearer goodkey")
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// the literal path matched the timeline route, not the {id} route
	assert.False(t, ds.MeetingFuncInvoked)
	var resp timelineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Timeline)
}
