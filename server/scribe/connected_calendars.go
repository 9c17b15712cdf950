package scribe

import "time"

// Calendar providers supported for connection. Only Google is wired today;
// the provider column keeps the door open.
const (
	CalendarProviderGoogle = "google"

	// PrimaryCalendarID is the provider-side id of a user's default calendar.
	PrimaryCalendarID = "primary"
)

// ConnectedCalendar records calendar-provider access granted by a user. Rows
// are created by the OAuth callback flow through an atomic upsert keyed on
// (user_id, provider, calendar_id), so repeating the flow never produces a
// duplicate. Disconnecting deactivates the row, it is never deleted.
type ConnectedCalendar struct {
	ID           string `json:"id" db:"id"`
	UserID       string `json:"user_id" db:"user_id"`
	Provider     string `json:"provider" db:"provider"`
	CalendarID   string `json:"calendar_id" db:"calendar_id"`
	CalendarName string `json:"calendar_name" db:"calendar_name"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	IsPrimary    bool   `json:"is_primary" db:"is_primary"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuthzOwnerID implements ownedResource for authorization checks.
func (c *ConnectedCalendar) AuthzOwnerID() string { return c.UserID }
