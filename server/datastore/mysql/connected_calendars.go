package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

// UpsertConnectedCalendar leans on the unique index on
// (user_id, provider, calendar_id). A repeated connection reactivates the
// existing row in place, so concurrent OAuth callbacks for the same user
// never produce duplicates.
func (d *Datastore) UpsertConnectedCalendar(ctx context.Context, cal *scribe.ConnectedCalendar) (bool, error) {
	if cal.ID == "" {
		cal.ID = uuid.New().String()
	}

	sqlStatement := `
		INSERT INTO connected_calendars (
			id,
			user_id,
			provider,
			calendar_id,
			calendar_name,
			is_active,
			is_primary
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			calendar_name = VALUES(calendar_name),
			is_active = VALUES(is_active),
			is_primary = VALUES(is_primary)
	`
	_, err := d.writer.ExecContext(ctx, sqlStatement,
		cal.ID,
		cal.UserID,
		cal.Provider,
		cal.CalendarID,
		cal.CalendarName,
		cal.IsActive,
		cal.IsPrimary,
	)
	if err != nil {
		return false, ctxerr.Wrap(ctx, err, "upserting connected calendar")
	}

	// Read the row back to learn which id won; on the duplicate path the
	// stored row keeps its original id.
	stored := &scribe.ConnectedCalendar{}
	err = sqlx.GetContext(ctx, d.reader, stored, `
		SELECT * FROM connected_calendars
		WHERE user_id = ? AND provider = ? AND calendar_id = ?
		LIMIT 1
	`, cal.UserID, cal.Provider, cal.CalendarID)
	if err != nil {
		return false, ctxerr.Wrap(ctx, err, "selecting upserted connected calendar")
	}

	created := stored.ID == cal.ID
	*cal = *stored
	return created, nil
}

func (d *Datastore) ConnectedCalendar(ctx context.Context, id string) (*scribe.ConnectedCalendar, error) {
	sqlStatement := `
		SELECT * FROM connected_calendars
		WHERE id = ?
		LIMIT 1
	`
	cal := &scribe.ConnectedCalendar{}
	err := sqlx.GetContext(ctx, d.reader, cal, sqlStatement, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ctxerr.Wrap(ctx, notFound("ConnectedCalendar").WithID(id))
		}
		return nil, ctxerr.Wrap(ctx, err, "selecting connected calendar by id")
	}

	return cal, nil
}

func (d *Datastore) ListConnectedCalendars(ctx context.Context, userID string) ([]*scribe.ConnectedCalendar, error) {
	sqlStatement := `
		SELECT * FROM connected_calendars
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	cals := []*scribe.ConnectedCalendar{}
	if err := sqlx.SelectContext(ctx, d.reader, &cals, sqlStatement, userID); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "selecting connected calendars")
	}

	return cals, nil
}

func (d *Datastore) HasActiveConnectedCalendar(ctx context.Context, userID string) (bool, error) {
	sqlStatement := `
		SELECT 1 FROM connected_calendars
		WHERE user_id = ? AND is_active
		LIMIT 1
	`
	var one int
	err := sqlx.GetContext(ctx, d.reader, &one, sqlStatement, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, ctxerr.Wrap(ctx, err, "selecting active connected calendar")
	}

	return true, nil
}

func (d *Datastore) SetConnectedCalendarActive(ctx context.Context, id string, active bool) error {
	sqlStatement := `
		UPDATE connected_calendars SET is_active = ?
		WHERE id = ?
	`
	result, err := d.writer.ExecContext(ctx, sqlStatement, active, id)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "updating connected calendar active flag")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ctxerr.Wrap(ctx, err, "rows affected updating connected calendar active flag")
	}
	if rows == 0 {
		return ctxerr.Wrap(ctx, notFound("ConnectedCalendar").WithID(id))
	}
	return nil
}
