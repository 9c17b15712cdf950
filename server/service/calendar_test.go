package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WatchBeam/clock"
	"github.com/scribehq/scribe/server/authz"
	"github.com/scribehq/scribe/server/mock"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIdentity struct {
	session *scribe.AuthSession
	err     error
}

func (m *mockIdentity) ExchangeCodeForSession(ctx context.Context, code string) (*scribe.AuthSession, error) {
	return m.session, m.err
}

func TestCompleteOAuthCallbackExchangeFailure(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, &mockIdentity{err: errors.New("invalid code")}, nil)

	redirect, err := svc.CompleteOAuthCallback(context.Background(), "badcode")
	require.NoError(t, err)
	assert.Equal(t, "/auth/error", redirect)
	assert.False(t, ds.SaveUserOAuthTokenFuncInvoked)
	assert.False(t, ds.UpsertConnectedCalendarFuncInvoked)
}

func TestCompleteOAuthCallbackMissingCode(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, &mockIdentity{}, nil)

	_, err := svc.CompleteOAuthCallback(context.Background(), "")
	require.Error(t, err)
	var bre *scribe.BadRequestError
	assert.ErrorAs(t, err, &bre)
}

func TestCompleteOAuthCallbackPlainLogin(t *testing.T) {
	session := &scribe.AuthSession{UserID: "u1", Email: "u1@example.com"}

	t.Run("with connected calendar", func(t *testing.T) {
		ds := new(mock.Store)
		svc := newTestService(t, ds, &mockIdentity{session: session}, nil)
		ds.HasActiveConnectedCalendarFunc = func(ctx context.Context, userID string) (bool, error) {
			return true, nil
		}

		redirect, err := svc.CompleteOAuthCallback(context.Background(), "code")
		require.NoError(t, err)
		assert.Equal(t, "/dashboard", redirect)
	})

	t.Run("without connected calendar", func(t *testing.T) {
		ds := new(mock.Store)
		svc := newTestService(t, ds, &mockIdentity{session: session}, nil)
		ds.HasActiveConnectedCalendarFunc = func(ctx context.Context, userID string) (bool, error) {
			return false, nil
		}

		redirect, err := svc.CompleteOAuthCallback(context.Background(), "code")
		require.NoError(t, err)
		assert.Equal(t, "/onboarding", redirect)
	})
}

func TestCompleteOAuthCallbackWithRefreshToken(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	session := &scribe.AuthSession{
		UserID:               "u1",
		Email:                "u1@example.com",
		ProviderRefreshToken: "refresh-token",
		ExpiresIn:            3600,
	}
	svc := newTestService(t, ds, &mockIdentity{session: session}, mockClock)

	var gotExpiry time.Time
	ds.SaveUserOAuthTokenFunc = func(ctx context.Context, userID, refreshToken string, expiry time.Time) error {
		assert.Equal(t, "u1", userID)
		assert.Equal(t, "refresh-token", refreshToken)
		gotExpiry = expiry
		return nil
	}
	var upserted *scribe.ConnectedCalendar
	ds.UpsertConnectedCalendarFunc = func(ctx context.Context, cal *scribe.ConnectedCalendar) (bool, error) {
		upserted = cal
		return true, nil
	}
	var settingsApplied *scribe.UserSettings
	ds.ApplyUserSettingsFunc = func(ctx context.Context, userID string, partial scribe.UserSettings) (*scribe.UserSettings, *scribe.UserSettings, error) {
		settingsApplied = &partial
		merged := partial
		return &scribe.UserSettings{}, &merged, nil
	}
	var queued *scribe.Job
	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		queued = job
		return job, nil
	}

	redirect, err := svc.CompleteOAuthCallback(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", redirect)

	assert.Equal(t, mockClock.Now().Add(time.Hour), gotExpiry)

	require.NotNil(t, upserted)
	assert.Equal(t, "u1", upserted.UserID)
	assert.Equal(t, scribe.CalendarProviderGoogle, upserted.Provider)
	assert.Equal(t, scribe.PrimaryCalendarID, upserted.CalendarID)
	assert.True(t, upserted.IsActive)
	assert.True(t, upserted.IsPrimary)

	require.NotNil(t, settingsApplied)
	require.NotNil(t, settingsApplied.AutoSyncCalendar)
	assert.True(t, *settingsApplied.AutoSyncCalendar)

	require.NotNil(t, queued)
	assert.Equal(t, "sync_calendar", queued.Name)
}

// A second callback for an already connected user must not re-enable auto
// sync or queue another sync job.
func TestCompleteOAuthCallbackIdempotent(t *testing.T) {
	ds := new(mock.Store)
	session := &scribe.AuthSession{
		UserID:               "u1",
		ProviderRefreshToken: "refresh-token",
		ExpiresIn:            3600,
	}
	svc := newTestService(t, ds, &mockIdentity{session: session}, nil)

	ds.SaveUserOAuthTokenFunc = func(ctx context.Context, userID, refreshToken string, expiry time.Time) error {
		return nil
	}
	ds.UpsertConnectedCalendarFunc = func(ctx context.Context, cal *scribe.ConnectedCalendar) (bool, error) {
		// existing row reactivated in place
		return false, nil
	}

	redirect, err := svc.CompleteOAuthCallback(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", redirect)
	assert.False(t, ds.ApplyUserSettingsFuncInvoked)
	assert.False(t, ds.NewJobFuncInvoked)
}

func TestCompleteOAuthCallbackSwallowsPostTokenFailures(t *testing.T) {
	ds := new(mock.Store)
	session := &scribe.AuthSession{
		UserID:               "u1",
		ProviderRefreshToken: "refresh-token",
		ExpiresIn:            3600,
	}
	svc := newTestService(t, ds, &mockIdentity{session: session}, nil)

	ds.SaveUserOAuthTokenFunc = func(ctx context.Context, userID, refreshToken string, expiry time.Time) error {
		return nil
	}
	ds.UpsertConnectedCalendarFunc = func(ctx context.Context, cal *scribe.ConnectedCalendar) (bool, error) {
		return false, errors.New("db down")
	}

	redirect, err := svc.CompleteOAuthCallback(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", redirect)
}

func TestListCalendarEventsWindowClamping(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	var gotOpt scribe.ListCalendarEventsOptions
	ds.ListCalendarEventsFunc = func(ctx context.Context, userID string, opt scribe.ListCalendarEventsOptions) ([]*scribe.CalendarEvent, error) {
		gotOpt = opt
		return nil, nil
	}

	ctx := testUserContext(testUser("u1"))

	_, err := svc.ListCalendarEvents(ctx, scribe.ListCalendarEventsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 24, gotOpt.HoursAhead)

	_, err = svc.ListCalendarEvents(ctx, scribe.ListCalendarEventsOptions{HoursAhead: 5000})
	require.NoError(t, err)
	assert.Equal(t, 7*24, gotOpt.HoursAhead)

	_, err = svc.ListCalendarEvents(ctx, scribe.ListCalendarEventsOptions{HoursAhead: 48, IncludePast: true})
	require.NoError(t, err)
	assert.Equal(t, 48, gotOpt.HoursAhead)
	assert.True(t, gotOpt.IncludePast)
}

func TestExcludeCalendarEventOwnership(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.CalendarEventFunc = func(ctx context.Context, id string) (*scribe.CalendarEvent, error) {
		return &scribe.CalendarEvent{ID: id, UserID: "owner"}, nil
	}
	ds.SetCalendarEventExcludedFunc = func(ctx context.Context, id string, excluded bool) error {
		return nil
	}

	event, err := svc.ExcludeCalendarEvent(testUserContext(testUser("owner")), "ev1", true)
	require.NoError(t, err)
	assert.True(t, event.IsExcluded)

	_, err = svc.ExcludeCalendarEvent(testUserContext(testUser("intruder")), "ev1", true)
	require.Error(t, err)
	var forbidden *authz.Forbidden
	assert.ErrorAs(t, err, &forbidden)
}

func TestExcludeCalendarEventNotFound(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.CalendarEventFunc = func(ctx context.Context, id string) (*scribe.CalendarEvent, error) {
		return nil, &notFoundTestError{}
	}

	_, err := svc.ExcludeCalendarEvent(testUserContext(testUser("u1")), "missing", true)
	require.Error(t, err)
	assert.True(t, scribe.IsNotFound(err))
	assert.False(t, ds.SetCalendarEventExcludedFuncInvoked)
}

func TestDisconnectCalendar(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.ConnectedCalendarFunc = func(ctx context.Context, id string) (*scribe.ConnectedCalendar, error) {
		return &scribe.ConnectedCalendar{ID: id, UserID: "u1", IsActive: true}, nil
	}
	var deactivatedID string
	ds.SetConnectedCalendarActiveFunc = func(ctx context.Context, id string, active bool) error {
		deactivatedID = id
		assert.False(t, active)
		return nil
	}

	require.NoError(t, svc.DisconnectCalendar(testUserContext(testUser("u1")), "c1"))
	assert.Equal(t, "c1", deactivatedID)

	err := svc.DisconnectCalendar(testUserContext(testUser("intruder")), "c1")
	require.Error(t, err)
	var forbidden *authz.Forbidden
	assert.ErrorAs(t, err, &forbidden)
}

func TestTriggerCalendarSync(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		assert.Equal(t, "sync_calendar", job.Name)
		job.ID = 42
		return job, nil
	}

	jobID, err := svc.TriggerCalendarSync(testUserContext(testUser("u1")))
	require.NoError(t, err)
	assert.Equal(t, uint(42), jobID)
}

type notFoundTestError struct{}

func (e *notFoundTestError) Error() string    { return "not found" }
func (e *notFoundTestError) IsNotFound() bool { return true }
