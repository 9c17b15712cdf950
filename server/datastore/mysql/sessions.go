package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

func (d *Datastore) SessionByKey(ctx context.Context, key string) (*scribe.Session, error) {
	sqlStatement := `
		SELECT * FROM sessions
			WHERE session_key = ? LIMIT 1
	`
	session := &scribe.Session{}
	err := sqlx.GetContext(ctx, d.reader, session, sqlStatement, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ctxerr.Wrap(ctx, notFound("Session"))
		}
		return nil, ctxerr.Wrap(ctx, err, "selecting session by key")
	}

	return session, nil
}

func (d *Datastore) MarkSessionAccessed(ctx context.Context, session *scribe.Session) error {
	sqlStatement := `
		UPDATE sessions SET
		accessed_at = ?
		WHERE id = ?
	`
	results, err := d.writer.ExecContext(ctx, sqlStatement, d.clock.Now(), session.ID)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "updating mark session as accessed")
	}
	rows, err := results.RowsAffected()
	if err != nil {
		return ctxerr.Wrap(ctx, err, "rows affected updating mark session accessed")
	}
	if rows == 0 {
		return ctxerr.Wrap(ctx, notFound("Session").WithNumericID(session.ID))
	}
	return nil
}
