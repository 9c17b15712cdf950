package scribe

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MeetingStatus is the lifecycle state of a meeting. The server only ever
// writes the initial state; the bot orchestrator drives all later
// transitions through the status update endpoint, which validates against
// the transition table below.
type MeetingStatus string

const (
	MeetingStatusScheduled    MeetingStatus = "scheduled"
	MeetingStatusJoining      MeetingStatus = "joining"
	MeetingStatusRecording    MeetingStatus = "recording"
	MeetingStatusTranscribing MeetingStatus = "transcribing"
	MeetingStatusProcessing   MeetingStatus = "processing"
	MeetingStatusCompleted    MeetingStatus = "completed"
	MeetingStatusFailed       MeetingStatus = "failed"
	MeetingStatusCancelled    MeetingStatus = "cancelled"
)

// meetingTransitions holds the legal forward transitions. `failed` is
// additionally reachable from every non-terminal state, checked in
// CanTransition rather than listed per-state.
var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusScheduled:    {MeetingStatusJoining, MeetingStatusCancelled},
	MeetingStatusJoining:      {MeetingStatusRecording, MeetingStatusCancelled},
	MeetingStatusRecording:    {MeetingStatusTranscribing},
	MeetingStatusTranscribing: {MeetingStatusProcessing},
	MeetingStatusProcessing:   {MeetingStatusCompleted},
	MeetingStatusFailed:       {MeetingStatusScheduled}, // user retry
}

// IsValid reports whether s is a known status value.
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusJoining, MeetingStatusRecording,
		MeetingStatusTranscribing, MeetingStatusProcessing, MeetingStatusCompleted,
		MeetingStatusFailed, MeetingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// transition.
func (s MeetingStatus) CanTransition(next MeetingStatus) bool {
	if !s.IsValid() || !next.IsValid() || s == next {
		return false
	}
	if next == MeetingStatusFailed {
		return !s.IsTerminal() && s != MeetingStatusFailed
	}
	for _, allowed := range meetingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Meeting is one dispatched or recorded instance of a call. It is created
// either by the scheduled-detection sweep (linked to a calendar event) or by
// a manual join-now request (no calendar link). It is never deleted, only
// cancelled.
type Meeting struct {
	ID               string        `json:"id" db:"id"`
	UserID           string        `json:"user_id" db:"user_id"`
	CalendarEventID  *string       `json:"calendar_event_id" db:"calendar_event_id"`
	Title            string        `json:"title" db:"title"`
	MeetingURL       string        `json:"meeting_url" db:"meeting_url"`
	MeetingProvider  string        `json:"meeting_provider" db:"meeting_provider"`
	Status           MeetingStatus `json:"status" db:"status"`
	ScheduledStart   *time.Time    `json:"scheduled_start" db:"scheduled_start"`
	ScheduledEnd     *time.Time    `json:"scheduled_end" db:"scheduled_end"`
	ActualStart      *time.Time    `json:"actual_start" db:"actual_start"`
	ActualEnd        *time.Time    `json:"actual_end" db:"actual_end"`
	DurationSeconds  *int          `json:"duration_seconds" db:"duration_seconds"`
	ParticipantCount *int          `json:"participant_count" db:"participant_count"`
	ErrorMessage     *string       `json:"error_message,omitempty" db:"error_message"`
	RetryCount       int           `json:"retry_count" db:"retry_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuthzOwnerID implements ownedResource for authorization checks.
func (m *Meeting) AuthzOwnerID() string { return m.UserID }

// MeetingLifecycleUpdate is the payload of a status-update request from the
// bot orchestrator. Only the status is required; the remaining fields are
// applied when present.
type MeetingLifecycleUpdate struct {
	Status           MeetingStatus `json:"status"`
	ActualStart      *time.Time    `json:"actual_start"`
	ActualEnd        *time.Time    `json:"actual_end"`
	DurationSeconds  *int          `json:"duration_seconds"`
	ParticipantCount *int          `json:"participant_count"`
	ErrorMessage     *string       `json:"error_message"`
}

// ListMeetingsOptions filters and pages the meetings listing.
type ListMeetingsOptions struct {
	Status MeetingStatus
	Limit  uint
	Offset uint
}

// meetURLPattern matches a canonical Google Meet join link: https only and
// the exact abc-defg-hij meeting code shape. Join-now requests accept
// nothing else.
var meetURLPattern = regexp.MustCompile(`^https://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}$`)

// ValidateMeetingURL checks that url is a well-formed Google Meet join link.
func ValidateMeetingURL(url string) error {
	if url == "" {
		return NewInvalidArgumentError("meeting_url", "missing required argument")
	}
	if !meetURLPattern.MatchString(url) {
		return NewInvalidArgumentError("meeting_url", "must be a Google Meet link like https://meet.google.com/abc-defg-hij")
	}
	return nil
}

const (
	ProviderGoogleMeet = "google_meet"
	ProviderZoom       = "zoom"
	ProviderTeams      = "teams"
	ProviderOther      = "other"
)

// DetectMeetingProvider infers the conferencing provider from a meeting URL.
// Synced calendar events may carry Zoom or Teams links even though join-now
// only dispatches to Google Meet.
func DetectMeetingProvider(url string) string {
	switch {
	case strings.Contains(url, "meet.google.com"):
		return ProviderGoogleMeet
	case strings.Contains(url, "zoom.us"):
		return ProviderZoom
	case strings.Contains(url, "teams.microsoft.com"):
		return ProviderTeams
	default:
		return ProviderOther
	}
}

// DefaultMeetingTitle builds the placeholder title for a manual join-now
// request that arrived without one, localized to the user's language.
func DefaultMeetingTitle(lang string, now time.Time) string {
	if strings.EqualFold(lang, "pt-BR") || strings.HasPrefix(strings.ToLower(lang), "pt") {
		return fmt.Sprintf("Reunião de %s", now.Format("02/01/2006 15:04"))
	}
	return fmt.Sprintf("Meeting %s", now.Format("2006-01-02 15:04"))
}
