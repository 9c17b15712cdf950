package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WatchBeam/clock"
	"github.com/scribehq/scribe/server/authz"
	"github.com/scribehq/scribe/server/mock"
	"github.com/scribehq/scribe/server/ptr"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinMeetingNow(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	svc := newTestService(t, ds, nil, mockClock)

	ds.NewMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) (*scribe.Meeting, error) {
		meeting.ID = "m1"
		return meeting, nil
	}
	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		job.ID = 1
		return job, nil
	}

	user := testUser("u1")
	ctx := testUserContext(user)

	meeting, err := svc.JoinMeetingNow(ctx, "https://meet.google.com/abc-defg-hij", "Standup")
	require.NoError(t, err)
	assert.Equal(t, "m1", meeting.ID)
	assert.Equal(t, "u1", meeting.UserID)
	assert.Equal(t, "Standup", meeting.Title)
	assert.Equal(t, scribe.MeetingStatusJoining, meeting.Status)
	assert.Equal(t, scribe.ProviderGoogleMeet, meeting.MeetingProvider)
	assert.Nil(t, meeting.CalendarEventID)
	require.NotNil(t, meeting.ScheduledStart)
	assert.Equal(t, mockClock.Now(), *meeting.ScheduledStart)
	assert.True(t, ds.NewMeetingFuncInvoked)
	assert.True(t, ds.NewJobFuncInvoked)
}

func TestJoinMeetingNowDefaultTitle(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	svc := newTestService(t, ds, nil, mockClock)

	ds.NewMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) (*scribe.Meeting, error) {
		return meeting, nil
	}
	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		return job, nil
	}

	user := testUser("u1")
	user.Settings.DefaultLanguage = ptr.String("en")
	ctx := testUserContext(user)

	meeting, err := svc.JoinMeetingNow(ctx, "https://meet.google.com/abc-defg-hij", "")
	require.NoError(t, err)
	assert.Equal(t, scribe.DefaultMeetingTitle("en", mockClock.Now()), meeting.Title)
}

func TestJoinMeetingNowInvalidURL(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)
	ctx := testUserContext(testUser("u1"))

	for _, url := range []string{
		"",
		"https://meet.google.com/abcdefghij",
		"http://meet.google.com/abc-defg-hij",
		"https://zoom.us/j/123456789",
	} {
		_, err := svc.JoinMeetingNow(ctx, url, "")
		require.Error(t, err, "url %q", url)
		var iae *scribe.InvalidArgumentError
		assert.ErrorAs(t, err, &iae)
	}
	// no row was created for any invalid URL
	assert.False(t, ds.NewMeetingFuncInvoked)
	assert.False(t, ds.NewJobFuncInvoked)
}

func TestJoinMeetingNowSwallowsEnqueueFailure(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.NewMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) (*scribe.Meeting, error) {
		meeting.ID = "m1"
		return meeting, nil
	}
	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		return nil, errors.New("insert failed")
	}

	ctx := testUserContext(testUser("u1"))
	meeting, err := svc.JoinMeetingNow(ctx, "https://meet.google.com/abc-defg-hij", "Standup")
	require.NoError(t, err)
	assert.Equal(t, "m1", meeting.ID)
	assert.True(t, ds.NewJobFuncInvoked)
}

func TestGetMeetingOwnership(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
		return &scribe.Meeting{ID: id, UserID: "owner"}, nil
	}

	meeting, err := svc.GetMeeting(testUserContext(testUser("owner")), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", meeting.ID)

	_, err = svc.GetMeeting(testUserContext(testUser("intruder")), "m1")
	require.Error(t, err)
	var forbidden *authz.Forbidden
	assert.ErrorAs(t, err, &forbidden)
}

func TestCancelMeeting(t *testing.T) {
	testCases := []struct {
		status  scribe.MeetingStatus
		wantErr bool
	}{
		{scribe.MeetingStatusScheduled, false},
		{scribe.MeetingStatusJoining, false},
		{scribe.MeetingStatusRecording, true},
		{scribe.MeetingStatusTranscribing, true},
		{scribe.MeetingStatusProcessing, true},
		{scribe.MeetingStatusCompleted, true},
		{scribe.MeetingStatusFailed, true},
		{scribe.MeetingStatusCancelled, true},
	}
	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			ds := new(mock.Store)
			svc := newTestService(t, ds, nil, nil)

			ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
				return &scribe.Meeting{ID: id, UserID: "u1", Status: tc.status}, nil
			}
			var saved *scribe.Meeting
			ds.SaveMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) error {
				saved = meeting
				return nil
			}

			meeting, err := svc.CancelMeeting(testUserContext(testUser("u1")), "m1")
			if tc.wantErr {
				require.Error(t, err)
				var bre *scribe.BadRequestError
				assert.ErrorAs(t, err, &bre)
				assert.False(t, ds.SaveMeetingFuncInvoked)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, scribe.MeetingStatusCancelled, meeting.Status)
			require.NotNil(t, saved)
			assert.Equal(t, scribe.MeetingStatusCancelled, saved.Status)
		})
	}
}

func TestRetryMeeting(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
		return &scribe.Meeting{
			ID:           id,
			UserID:       "u1",
			Status:       scribe.MeetingStatusFailed,
			ErrorMessage: ptr.String("bot crashed"),
			RetryCount:   1,
		}, nil
	}
	ds.SaveMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) error {
		return nil
	}
	var queuedJob *scribe.Job
	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		queuedJob = job
		return job, nil
	}

	meeting, err := svc.RetryMeeting(testUserContext(testUser("u1")), "m1")
	require.NoError(t, err)
	assert.Equal(t, scribe.MeetingStatusScheduled, meeting.Status)
	assert.Equal(t, 2, meeting.RetryCount)
	assert.Nil(t, meeting.ErrorMessage)
	require.NotNil(t, queuedJob)
	assert.Equal(t, "join_meeting", queuedJob.Name)
}

func TestRetryMeetingOnlyFromFailed(t *testing.T) {
	for _, status := range []scribe.MeetingStatus{
		scribe.MeetingStatusScheduled,
		scribe.MeetingStatusJoining,
		scribe.MeetingStatusRecording,
		scribe.MeetingStatusCompleted,
		scribe.MeetingStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			ds := new(mock.Store)
			svc := newTestService(t, ds, nil, nil)

			ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
				return &scribe.Meeting{ID: id, UserID: "u1", Status: status}, nil
			}

			_, err := svc.RetryMeeting(testUserContext(testUser("u1")), "m1")
			require.Error(t, err)
			var bre *scribe.BadRequestError
			assert.ErrorAs(t, err, &bre)
		})
	}
}

func TestUpdateMeetingStatus(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	svc := newTestService(t, ds, nil, mockClock)

	start := mockClock.Now().Add(-30 * time.Minute)
	ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
		return &scribe.Meeting{
			ID:          id,
			UserID:      "u1",
			Status:      scribe.MeetingStatusRecording,
			ActualStart: &start,
		}, nil
	}
	ds.SaveMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) error {
		return nil
	}

	ctx := testUserContext(testUser("u1"))

	// illegal transition is rejected before any save
	_, err := svc.UpdateMeetingStatus(ctx, "m1", scribe.MeetingLifecycleUpdate{
		Status: scribe.MeetingStatusCompleted,
	})
	require.Error(t, err)
	var iae *scribe.InvalidArgumentError
	assert.ErrorAs(t, err, &iae)
	assert.False(t, ds.SaveMeetingFuncInvoked)

	// legal transition applies the update fields
	participants := 4
	meeting, err := svc.UpdateMeetingStatus(ctx, "m1", scribe.MeetingLifecycleUpdate{
		Status:           scribe.MeetingStatusTranscribing,
		ParticipantCount: &participants,
	})
	require.NoError(t, err)
	assert.Equal(t, scribe.MeetingStatusTranscribing, meeting.Status)
	require.NotNil(t, meeting.ParticipantCount)
	assert.Equal(t, 4, *meeting.ParticipantCount)
	assert.True(t, ds.SaveMeetingFuncInvoked)
}

func TestUpdateMeetingStatusDerivesDuration(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	svc := newTestService(t, ds, nil, mockClock)

	start := mockClock.Now().Add(-45 * time.Minute)
	ds.MeetingFunc = func(ctx context.Context, id string) (*scribe.Meeting, error) {
		return &scribe.Meeting{
			ID:          id,
			UserID:      "u1",
			Status:      scribe.MeetingStatusProcessing,
			ActualStart: &start,
		}, nil
	}
	ds.SaveMeetingFunc = func(ctx context.Context, meeting *scribe.Meeting) error {
		return nil
	}

	meeting, err := svc.UpdateMeetingStatus(testUserContext(testUser("u1")), "m1", scribe.MeetingLifecycleUpdate{
		Status: scribe.MeetingStatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, meeting.ActualEnd)
	assert.Equal(t, mockClock.Now(), *meeting.ActualEnd)
	require.NotNil(t, meeting.DurationSeconds)
	assert.Equal(t, int(45*time.Minute/time.Second), *meeting.DurationSeconds)
}

func TestTimeline(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	svc := newTestService(t, ds, nil, mockClock)

	now := mockClock.Now()
	eventID := "ev1"
	ds.ListMeetingsFunc = func(ctx context.Context, userID string, opt scribe.ListMeetingsOptions) ([]*scribe.Meeting, error) {
		assert.Equal(t, "u1", userID)
		start := now.Add(-time.Hour)
		return []*scribe.Meeting{
			{
				ID:              "m1",
				UserID:          userID,
				CalendarEventID: &eventID,
				Title:           "linked",
				Status:          scribe.MeetingStatusCompleted,
				ScheduledStart:  &start,
				CreatedAt:       start,
			},
		}, nil
	}
	ds.ListUpcomingCalendarEventsFunc = func(ctx context.Context, userID string, now time.Time) ([]*scribe.CalendarEvent, error) {
		return []*scribe.CalendarEvent{
			{
				ID:        "ev1",
				UserID:    userID,
				Title:     "linked event",
				StartTime: now.Add(time.Hour),
				EndTime:   now.Add(2 * time.Hour),
				Status:    scribe.CalendarEventStatusConfirmed,
			},
			{
				ID:        "ev2",
				UserID:    userID,
				Title:     "free event",
				StartTime: now.Add(3 * time.Hour),
				EndTime:   now.Add(4 * time.Hour),
				Status:    scribe.CalendarEventStatusConfirmed,
			},
		}, nil
	}

	groups, err := svc.Timeline(testUserContext(testUser("u1")))
	require.NoError(t, err)

	var ids []string
	for _, g := range groups {
		for _, e := range g.Entries {
			ids = append(ids, e.ID)
		}
	}
	assert.ElementsMatch(t, []string{"m1", "ev2"}, ids)
}

func TestListMeetings(t *testing.T) {
	ds := new(mock.Store)
	svc := newTestService(t, ds, nil, nil)

	ds.ListMeetingsFunc = func(ctx context.Context, userID string, opt scribe.ListMeetingsOptions) ([]*scribe.Meeting, error) {
		assert.Equal(t, "u1", userID)
		assert.Equal(t, scribe.MeetingStatusCompleted, opt.Status)
		return []*scribe.Meeting{{ID: "m1", UserID: userID}}, nil
	}

	ctx := testUserContext(testUser("u1"))
	meetings, err := svc.ListMeetings(ctx, scribe.ListMeetingsOptions{Status: scribe.MeetingStatusCompleted})
	require.NoError(t, err)
	require.Len(t, meetings, 1)

	_, err = svc.ListMeetings(ctx, scribe.ListMeetingsOptions{Status: "bogus"})
	require.Error(t, err)
	var iae *scribe.InvalidArgumentError
	assert.ErrorAs(t, err, &iae)
}

func TestDispatchScheduledMeetings(t *testing.T) {
	ds := new(mock.Store)
	mockClock := clock.NewMockClock()
	svc := newTestService(t, ds, nil, mockClock)

	now := mockClock.Now()
	ds.ListDueCalendarEventsFunc = func(ctx context.Context, gotNow, windowEnd time.Time) ([]*scribe.CalendarEvent, error) {
		assert.Equal(t, now, gotNow)
		assert.True(t, windowEnd.After(gotNow))
		return []*scribe.CalendarEvent{
			{
				ID:              "ev1",
				UserID:          "u1",
				Title:           "due",
				MeetingURL:      ptr.String("https://meet.google.com/abc-defg-hij"),
				MeetingProvider: ptr.String(scribe.ProviderGoogleMeet),
				StartTime:       now.Add(time.Minute),
				EndTime:         now.Add(time.Hour),
			},
			{
				ID:         "ev2",
				UserID:     "u2",
				Title:      "already dispatched",
				MeetingURL: ptr.String("https://meet.google.com/xyz-abcd-efg"),
				StartTime:  now.Add(time.Minute),
				EndTime:    now.Add(time.Hour),
			},
			{
				ID:        "ev3",
				UserID:    "u3",
				Title:     "no join url",
				StartTime: now.Add(time.Minute),
				EndTime:   now.Add(time.Hour),
			},
		}, nil
	}

	var created []*scribe.Meeting
	ds.NewMeetingForEventFunc = func(ctx context.Context, meeting *scribe.Meeting) (*scribe.Meeting, error) {
		if *meeting.CalendarEventID == "ev2" {
			return nil, &duplicateMeetingError{}
		}
		meeting.ID = "m-" + *meeting.CalendarEventID
		created = append(created, meeting)
		return meeting, nil
	}
	var queued []*scribe.Job
	ds.NewJobFunc = func(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
		queued = append(queued, job)
		return job, nil
	}

	require.NoError(t, svc.DispatchScheduledMeetings(context.Background()))

	// ev2 is a duplicate and ev3 has no URL for a bot to join
	require.Len(t, created, 1)
	assert.Equal(t, "ev1", *created[0].CalendarEventID)
	assert.Equal(t, scribe.MeetingStatusScheduled, created[0].Status)
	// only the newly created meeting got a dispatch job
	require.Len(t, queued, 1)
	assert.Equal(t, "join_meeting", queued[0].Name)
}

type duplicateMeetingError struct{}

func (e *duplicateMeetingError) Error() string  { return "Meeting already exists" }
func (e *duplicateMeetingError) IsExists() bool { return true }
