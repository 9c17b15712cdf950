package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

func (d *Datastore) CalendarEvent(ctx context.Context, id string) (*scribe.CalendarEvent, error) {
	sqlStatement := `
		SELECT * FROM calendar_events
		WHERE id = ?
		LIMIT 1
	`
	event := &scribe.CalendarEvent{}
	err := sqlx.GetContext(ctx, d.reader, event, sqlStatement, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ctxerr.Wrap(ctx, notFound("CalendarEvent").WithID(id))
		}
		return nil, ctxerr.Wrap(ctx, err, "selecting calendar event by id")
	}

	return event, nil
}

func (d *Datastore) ListCalendarEvents(ctx context.Context, userID string, opt scribe.ListCalendarEventsOptions) ([]*scribe.CalendarEvent, error) {
	now := d.clock.Now()

	sqlStatement := `
		SELECT * FROM calendar_events
		WHERE user_id = ?
			AND status = ?
			AND NOT is_excluded
			AND start_time <= ?
			AND end_time >= ?
		ORDER BY start_time ASC
	`
	windowStart := now
	if opt.IncludePast {
		windowStart = now.Add(-24 * time.Hour)
	}
	args := []interface{}{userID, scribe.CalendarEventStatusConfirmed, now.Add(time.Duration(opt.HoursAhead) * time.Hour), windowStart}

	events := []*scribe.CalendarEvent{}
	if err := sqlx.SelectContext(ctx, d.reader, &events, sqlStatement, args...); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "selecting calendar events")
	}

	return events, nil
}

func (d *Datastore) ListUpcomingCalendarEvents(ctx context.Context, userID string, now time.Time) ([]*scribe.CalendarEvent, error) {
	sqlStatement := `
		SELECT * FROM calendar_events
		WHERE user_id = ?
			AND status = ?
			AND NOT is_excluded
			AND start_time >= ?
		ORDER BY start_time ASC
	`
	events := []*scribe.CalendarEvent{}
	if err := sqlx.SelectContext(ctx, d.reader, &events, sqlStatement, userID, scribe.CalendarEventStatusConfirmed, now); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "selecting upcoming calendar events")
	}

	return events, nil
}

func (d *Datastore) ListDueCalendarEvents(ctx context.Context, now, windowEnd time.Time) ([]*scribe.CalendarEvent, error) {
	sqlStatement := `
		SELECT * FROM calendar_events
		WHERE status = ?
			AND NOT is_excluded
			AND should_record
			AND meeting_url IS NOT NULL
			AND start_time <= ?
			AND end_time > ?
	`
	events := []*scribe.CalendarEvent{}
	if err := sqlx.SelectContext(ctx, d.reader, &events, sqlStatement, scribe.CalendarEventStatusConfirmed, windowEnd, now); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "selecting due calendar events")
	}

	return events, nil
}

func (d *Datastore) SetCalendarEventExcluded(ctx context.Context, id string, excluded bool) error {
	return d.setCalendarEventFlag(ctx, id, "is_excluded", excluded)
}

func (d *Datastore) SetCalendarEventShouldRecord(ctx context.Context, id string, shouldRecord bool) error {
	return d.setCalendarEventFlag(ctx, id, "should_record", shouldRecord)
}

func (d *Datastore) setCalendarEventFlag(ctx context.Context, id, column string, value bool) error {
	sqlStatement := `
		UPDATE calendar_events SET ` + sanitizeColumn(column) + ` = ?
		WHERE id = ?
	`
	result, err := d.writer.ExecContext(ctx, sqlStatement, value, id)
	if err != nil {
		return ctxerr.Wrapf(ctx, err, "updating calendar event %s", column)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ctxerr.Wrapf(ctx, err, "rows affected updating calendar event %s", column)
	}
	if rows == 0 {
		return ctxerr.Wrap(ctx, notFound("CalendarEvent").WithID(id))
	}
	return nil
}
