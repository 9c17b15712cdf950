package scribe

import "time"

// CalendarEventStatus mirrors the confirmation status reported by the
// calendar provider.
type CalendarEventStatus string

const (
	CalendarEventStatusConfirmed CalendarEventStatus = "confirmed"
	CalendarEventStatusTentative CalendarEventStatus = "tentative"
)

// CalendarEvent is one occurrence synced from the user's external calendar
// by the sync collaborator. The server mutates only the exclusion and
// recording flags; everything else is owned by the sync.
type CalendarEvent struct {
	ID              string              `json:"id" db:"id"`
	UserID          string              `json:"user_id" db:"user_id"`
	ExternalEventID string              `json:"external_event_id" db:"external_event_id"`
	Title           string              `json:"title" db:"title"`
	Description     *string             `json:"description,omitempty" db:"description"`
	MeetingURL      *string             `json:"meeting_url" db:"meeting_url"`
	MeetingProvider *string             `json:"meeting_provider" db:"meeting_provider"`
	StartTime       time.Time           `json:"start_time" db:"start_time"`
	EndTime         time.Time           `json:"end_time" db:"end_time"`
	Status          CalendarEventStatus `json:"status" db:"status"`
	ShouldRecord    bool                `json:"should_record" db:"should_record"`
	IsExcluded      bool                `json:"is_excluded" db:"is_excluded"`
	OrganizerEmail  *string             `json:"organizer_email,omitempty" db:"organizer_email"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuthzOwnerID implements ownedResource for authorization checks.
func (e *CalendarEvent) AuthzOwnerID() string { return e.UserID }

// ListCalendarEventsOptions controls the events listing window.
type ListCalendarEventsOptions struct {
	// HoursAhead bounds the window end at now+HoursAhead (max one week).
	HoursAhead int
	// IncludePast extends the window start to 24h in the past.
	IncludePast bool
}
