package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

func (d *Datastore) NewMeeting(ctx context.Context, meeting *scribe.Meeting) (*scribe.Meeting, error) {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	if err := d.insertMeeting(ctx, d.writer, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

// NewMeetingForEvent relies on the unique index on calendar_event_id: a
// concurrent insert for the same event loses the race at the storage layer
// instead of creating a duplicate row.
func (d *Datastore) NewMeetingForEvent(ctx context.Context, meeting *scribe.Meeting) (*scribe.Meeting, error) {
	if meeting.CalendarEventID == nil {
		return nil, ctxerr.New(ctx, "meeting has no calendar event id")
	}
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	if err := d.insertMeeting(ctx, d.writer, meeting); err != nil {
		if isDuplicate(err) {
			return nil, ctxerr.Wrap(ctx, alreadyExists("Meeting", *meeting.CalendarEventID))
		}
		return nil, err
	}
	return meeting, nil
}

func (d *Datastore) insertMeeting(ctx context.Context, tx sqlx.ExtContext, meeting *scribe.Meeting) error {
	sqlStatement := `
		INSERT INTO meetings (
			id,
			user_id,
			calendar_event_id,
			title,
			meeting_url,
			meeting_provider,
			status,
			scheduled_start,
			scheduled_end,
			retry_count
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, sqlStatement,
		meeting.ID,
		meeting.UserID,
		meeting.CalendarEventID,
		meeting.Title,
		meeting.MeetingURL,
		meeting.MeetingProvider,
		meeting.Status,
		meeting.ScheduledStart,
		meeting.ScheduledEnd,
		meeting.RetryCount,
	)
	if err != nil {
		if isDuplicate(err) {
			return err
		}
		return ctxerr.Wrap(ctx, err, "inserting meeting")
	}
	return nil
}

func (d *Datastore) Meeting(ctx context.Context, id string) (*scribe.Meeting, error) {
	sqlStatement := `
		SELECT * FROM meetings
		WHERE id = ?
		LIMIT 1
	`
	meeting := &scribe.Meeting{}
	err := sqlx.GetContext(ctx, d.reader, meeting, sqlStatement, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ctxerr.Wrap(ctx, notFound("Meeting").WithID(id))
		}
		return nil, ctxerr.Wrap(ctx, err, "selecting meeting by id")
	}

	return meeting, nil
}

func (d *Datastore) ListMeetings(ctx context.Context, userID string, opt scribe.ListMeetingsOptions) ([]*scribe.Meeting, error) {
	ds := dialect.From(goqu.I("meetings")).Select(goqu.Star()).
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	if opt.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(opt.Status)))
	}

	limit := opt.Limit
	if limit <= 0 {
		limit = defaultSelectLimit
	}
	ds = ds.Limit(uint(limit))
	if opt.Offset > 0 {
		ds = ds.Offset(uint(opt.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "building list meetings query")
	}

	meetings := []*scribe.Meeting{}
	if err := sqlx.SelectContext(ctx, d.reader, &meetings, query, args...); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "selecting meetings")
	}

	return meetings, nil
}

func (d *Datastore) SaveMeeting(ctx context.Context, meeting *scribe.Meeting) error {
	sqlStatement := `
		UPDATE meetings SET
			title = ?,
			status = ?,
			scheduled_start = ?,
			scheduled_end = ?,
			actual_start = ?,
			actual_end = ?,
			duration_seconds = ?,
			participant_count = ?,
			error_message = ?,
			retry_count = ?
		WHERE id = ?
	`
	result, err := d.writer.ExecContext(ctx, sqlStatement,
		meeting.Title,
		meeting.Status,
		meeting.ScheduledStart,
		meeting.ScheduledEnd,
		meeting.ActualStart,
		meeting.ActualEnd,
		meeting.DurationSeconds,
		meeting.ParticipantCount,
		meeting.ErrorMessage,
		meeting.RetryCount,
		meeting.ID,
	)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "saving meeting")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ctxerr.Wrap(ctx, err, "rows affected saving meeting")
	}
	if rows == 0 {
		return ctxerr.Wrap(ctx, notFound("Meeting").WithID(meeting.ID))
	}
	return nil
}
