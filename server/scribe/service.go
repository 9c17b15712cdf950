package scribe

import "context"

// Service is the API exposed to the HTTP transport.
type Service interface {
	// GetSessionByKey looks up a session by its bearer key for the auth
	// middleware.
	GetSessionByKey(ctx context.Context, key string) (*Session, error)

	// UserUnauthorized returns a user without any authorization check; it
	// must only be used by the auth middleware to build the viewer.
	UserUnauthorized(ctx context.Context, id string) (*User, error)

	// CompleteOAuthCallback exchanges the authorization code with the
	// identity provider and, when the grant carries a refresh token,
	// persists it and connects the user's primary Google calendar. It
	// returns the path the browser should be redirected to.
	CompleteOAuthCallback(ctx context.Context, code string) (redirect string, err error)

	// Timeline returns the reconciled, deduplicated, grouped view of the
	// viewer's meetings and upcoming calendar events.
	Timeline(ctx context.Context) ([]TimelineGroup, error)

	// JoinMeetingNow creates a meeting in "joining" state for the given URL
	// and queues a bot dispatch job. The meeting row exists even when the
	// queueing fails.
	JoinMeetingNow(ctx context.Context, meetingURL, title string) (*Meeting, error)

	// DispatchScheduledMeetings sweeps calendar events due to start within
	// the join window and dispatches a bot for each one that has no meeting
	// yet. Called from the scheduler cron, not from the API.
	DispatchScheduledMeetings(ctx context.Context) error

	ListMeetings(ctx context.Context, opt ListMeetingsOptions) ([]*Meeting, error)
	GetMeeting(ctx context.Context, id string) (*Meeting, error)

	// CancelMeeting moves a scheduled or joining meeting to cancelled.
	CancelMeeting(ctx context.Context, id string) (*Meeting, error)

	// RetryMeeting resets a failed meeting to scheduled and queues a new
	// dispatch job.
	RetryMeeting(ctx context.Context, id string) (*Meeting, error)

	// UpdateMeetingStatus applies a lifecycle transition reported by the bot
	// orchestrator, rejecting anything the transition table does not allow.
	UpdateMeetingStatus(ctx context.Context, id string, update MeetingLifecycleUpdate) (*Meeting, error)

	ListCalendarEvents(ctx context.Context, opt ListCalendarEventsOptions) ([]*CalendarEvent, error)

	// ExcludeCalendarEvent soft-hides an event from every listing without
	// touching the user's real calendar.
	ExcludeCalendarEvent(ctx context.Context, id string, excluded bool) (*CalendarEvent, error)

	// SetCalendarEventShouldRecord toggles recording for one event.
	SetCalendarEventShouldRecord(ctx context.Context, id string, shouldRecord bool) (*CalendarEvent, error)

	ListConnectedCalendars(ctx context.Context) ([]*ConnectedCalendar, error)

	// DisconnectCalendar soft-deactivates a connection.
	DisconnectCalendar(ctx context.Context, id string) error

	// TriggerCalendarSync queues an immediate sync job for the viewer.
	TriggerCalendarSync(ctx context.Context) (jobID uint, err error)

	// Preferences returns the viewer's settings with defaults applied.
	Preferences(ctx context.Context) (*UserSettings, error)

	// ApplyPreferenceUpdate merges the partial update over the stored
	// settings and reports whether the auto-sync side effect fired.
	ApplyPreferenceUpdate(ctx context.Context, partial UserSettings) (merged *UserSettings, syncTriggered bool, err error)
}
