package scribe

import (
	"context"
	"time"
)

// Datastore combines all the persistence interfaces of the server.
type Datastore interface {
	UserStore
	SessionStore
	MeetingStore
	CalendarEventStore
	ConnectedCalendarStore
	JobStore
}

// UserStore is the interface for user rows and their settings document.
type UserStore interface {
	// UserByID returns the user with the given id, or a not-found error.
	UserByID(ctx context.Context, id string) (*User, error)

	// SaveUserOAuthToken stores the provider refresh token and its computed
	// expiry on the user row. The settings document is untouched.
	SaveUserOAuthToken(ctx context.Context, userID, refreshToken string, expiry time.Time) error

	// ApplyUserSettings merges every set field of partial on top of the
	// stored settings inside a single transaction and persists the result.
	// It returns the settings as stored before and after the merge.
	ApplyUserSettings(ctx context.Context, userID string, partial UserSettings) (old, merged *UserSettings, err error)
}

// SessionStore manages API sessions.
type SessionStore interface {
	// SessionByKey returns the session with the given bearer key.
	SessionByKey(ctx context.Context, key string) (*Session, error)

	// MarkSessionAccessed updates the session access timestamp.
	MarkSessionAccessed(ctx context.Context, session *Session) error
}

// MeetingStore is the interface for dispatched/recorded meeting rows.
type MeetingStore interface {
	// NewMeeting inserts a meeting row.
	NewMeeting(ctx context.Context, meeting *Meeting) (*Meeting, error)

	// NewMeetingForEvent inserts a meeting linked to a calendar event unless
	// one already exists for that event, in which case it returns an
	// already-exists error and inserts nothing.
	NewMeetingForEvent(ctx context.Context, meeting *Meeting) (*Meeting, error)

	// Meeting returns the meeting with the given id.
	Meeting(ctx context.Context, id string) (*Meeting, error)

	// ListMeetings returns the user's meetings ordered by creation time
	// descending.
	ListMeetings(ctx context.Context, userID string, opt ListMeetingsOptions) ([]*Meeting, error)

	// SaveMeeting persists the mutable lifecycle fields of the meeting.
	SaveMeeting(ctx context.Context, meeting *Meeting) error
}

// CalendarEventStore is the interface for externally-synced calendar events.
// The sync collaborator owns row creation; this server only reads and
// toggles the exclusion/recording flags.
type CalendarEventStore interface {
	// CalendarEvent returns the event with the given id.
	CalendarEvent(ctx context.Context, id string) (*CalendarEvent, error)

	// ListCalendarEvents returns the user's confirmed, not-excluded events
	// within the window, ordered by start time ascending.
	ListCalendarEvents(ctx context.Context, userID string, opt ListCalendarEventsOptions) ([]*CalendarEvent, error)

	// ListUpcomingCalendarEvents returns confirmed, not-excluded events with
	// a start time at or after now, ordered by start time ascending. This is
	// the timeline read path.
	ListUpcomingCalendarEvents(ctx context.Context, userID string, now time.Time) ([]*CalendarEvent, error)

	// ListDueCalendarEvents returns recordable confirmed events across all
	// users that start within the join window, have not ended yet and carry
	// a join URL.
	ListDueCalendarEvents(ctx context.Context, now, windowEnd time.Time) ([]*CalendarEvent, error)

	// SetCalendarEventExcluded toggles the exclusion flag; the row otherwise
	// keeps its synced data intact.
	SetCalendarEventExcluded(ctx context.Context, id string, excluded bool) error

	// SetCalendarEventShouldRecord toggles the recording flag.
	SetCalendarEventShouldRecord(ctx context.Context, id string, shouldRecord bool) error
}

// ConnectedCalendarStore is the interface for calendar-connection rows.
type ConnectedCalendarStore interface {
	// UpsertConnectedCalendar inserts the connection or, when a row already
	// exists for (user_id, provider, calendar_id), reactivates it in place.
	// The uniqueness lives in the storage layer, so concurrent callbacks
	// cannot produce duplicate rows. Returns whether a new row was created.
	UpsertConnectedCalendar(ctx context.Context, cal *ConnectedCalendar) (created bool, err error)

	// ConnectedCalendar returns the connection with the given id.
	ConnectedCalendar(ctx context.Context, id string) (*ConnectedCalendar, error)

	// ListConnectedCalendars returns the user's connections, newest first.
	ListConnectedCalendars(ctx context.Context, userID string) ([]*ConnectedCalendar, error)

	// HasActiveConnectedCalendar reports whether the user has at least one
	// active connection.
	HasActiveConnectedCalendar(ctx context.Context, userID string) (bool, error)

	// SetConnectedCalendarActive soft-disconnects or reactivates a row.
	SetConnectedCalendarActive(ctx context.Context, id string, active bool) error
}

// JobStore is the interface for the durable outbox processed by the worker.
type JobStore interface {
	// NewJob inserts a queued job.
	NewJob(ctx context.Context, job *Job) (*Job, error)

	// GetQueuedJobs returns up to maxNumJobs queued jobs whose not_before
	// has passed, oldest update first.
	GetQueuedJobs(ctx context.Context, maxNumJobs int, now time.Time) ([]*Job, error)

	// UpdateJob persists the job's state, retries, error and not_before.
	UpdateJob(ctx context.Context, id uint, job *Job) (*Job, error)
}
