package scribe

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User is an account identity. Accounts are provisioned by the external
// identity provider; this server reads them, stores per-user preferences,
// and holds the Google refresh token granted during calendar connection.
type User struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`

	// Settings is the persisted preferences document. Individual fields are
	// optional so a partial update can be told apart from an explicit value.
	Settings UserSettings `json:"settings" db:"settings"`

	// GoogleRefreshToken and GoogleTokenExpiry are set by the OAuth callback
	// flow when the provider granted offline calendar access.
	GoogleRefreshToken *string    `json:"-" db:"google_refresh_token"`
	GoogleTokenExpiry  *time.Time `json:"-" db:"google_token_expiry"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Session is a bearer-token API session for a user.
type Session struct {
	ID         uint      `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Key        string    `json:"-" db:"session_key"`
	AccessedAt time.Time `json:"accessed_at" db:"accessed_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Default preference values, reported by the preferences endpoint whenever
// the stored document doesn't carry an explicit value.
const (
	DefaultLanguage       = "pt-BR"
	DefaultBotDisplayName = "Scribe Notetaker"
)

// UserSettings is the typed preferences document. Every field is a pointer:
// nil means "not set", which matters both for partial updates (only non-nil
// fields are applied) and for the auto-sync transition signal.
type UserSettings struct {
	AutoRecord           *bool   `json:"auto_record,omitempty"`
	AutoSyncCalendar     *bool   `json:"auto_sync_calendar,omitempty"`
	EmailNotifications   *bool   `json:"email_notifications,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	DefaultLanguage      *string `json:"default_language,omitempty"`
	BotDisplayName       *string `json:"bot_display_name,omitempty"`
	BotCameraEnabled     *bool   `json:"bot_camera_enabled,omitempty"`
}

// Merge returns a copy of s with every non-nil field of partial applied on
// top. Unset fields of partial never clobber stored values.
func (s UserSettings) Merge(partial UserSettings) UserSettings {
	if partial.AutoRecord != nil {
		s.AutoRecord = partial.AutoRecord
	}
	if partial.AutoSyncCalendar != nil {
		s.AutoSyncCalendar = partial.AutoSyncCalendar
	}
	if partial.EmailNotifications != nil {
		s.EmailNotifications = partial.EmailNotifications
	}
	if partial.NotificationsEnabled != nil {
		s.NotificationsEnabled = partial.NotificationsEnabled
	}
	if partial.DefaultLanguage != nil {
		s.DefaultLanguage = partial.DefaultLanguage
	}
	if partial.BotDisplayName != nil {
		s.BotDisplayName = partial.BotDisplayName
	}
	if partial.BotCameraEnabled != nil {
		s.BotCameraEnabled = partial.BotCameraEnabled
	}
	return s
}

// IsZero reports whether no field of s is set.
func (s UserSettings) IsZero() bool {
	return s == UserSettings{}
}

// WithDefaults returns s with the documented default filled into every unset
// field. Only used on the read path; defaults are never persisted.
func (s UserSettings) WithDefaults() UserSettings {
	t, f := true, false
	lang, bot := DefaultLanguage, DefaultBotDisplayName
	if s.AutoRecord == nil {
		s.AutoRecord = &t
	}
	if s.AutoSyncCalendar == nil {
		s.AutoSyncCalendar = &t
	}
	if s.EmailNotifications == nil {
		s.EmailNotifications = &t
	}
	if s.NotificationsEnabled == nil {
		s.NotificationsEnabled = &t
	}
	if s.DefaultLanguage == nil {
		s.DefaultLanguage = &lang
	}
	if s.BotDisplayName == nil {
		s.BotDisplayName = &bot
	}
	if s.BotCameraEnabled == nil {
		s.BotCameraEnabled = &f
	}
	return s
}

// Language returns the stored language preference or the default.
func (s UserSettings) Language() string {
	if s.DefaultLanguage != nil && *s.DefaultLanguage != "" {
		return *s.DefaultLanguage
	}
	return DefaultLanguage
}

// BotName returns the stored bot display name or the default.
func (s UserSettings) BotName() string {
	if s.BotDisplayName != nil && *s.BotDisplayName != "" {
		return *s.BotDisplayName
	}
	return DefaultBotDisplayName
}

// BotCamera returns whether the bot should join with its camera on.
func (s UserSettings) BotCamera() bool {
	return s.BotCameraEnabled != nil && *s.BotCameraEnabled
}

// AutoSyncStored returns the raw stored auto-sync flag: absent counts as
// false. This feeds the sync-trigger transition signal, which must fire only
// on a falsy/absent -> true flip.
func (s UserSettings) AutoSyncStored() bool {
	return s.AutoSyncCalendar != nil && *s.AutoSyncCalendar
}

// SyncTriggeredBy reports whether applying partial on top of the stored
// settings s flips auto_sync_calendar from falsy/absent to true.
func (s UserSettings) SyncTriggeredBy(partial UserSettings) bool {
	if partial.AutoSyncCalendar == nil || !*partial.AutoSyncCalendar {
		return false
	}
	return !s.AutoSyncStored()
}

// Value implements driver.Valuer. Settings are stored as a JSON document, so
// unset fields stay absent in storage.
func (s UserSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *UserSettings) Scan(val interface{}) error {
	switch v := val.(type) {
	case nil:
		*s = UserSettings{}
		return nil
	case []byte:
		if len(v) == 0 {
			*s = UserSettings{}
			return nil
		}
		return json.Unmarshal(v, s)
	case string:
		if v == "" {
			*s = UserSettings{}
			return nil
		}
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for user settings: %T", val)
	}
}
