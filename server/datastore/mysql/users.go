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

func (d *Datastore) UserByID(ctx context.Context, id string) (*scribe.User, error) {
	sqlStatement := `
		SELECT * FROM users
		WHERE id = ?
		LIMIT 1
	`
	user := &scribe.User{}
	err := sqlx.GetContext(ctx, d.reader, user, sqlStatement, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ctxerr.Wrap(ctx, notFound("User").WithID(id))
		}
		return nil, ctxerr.Wrap(ctx, err, "selecting user by id")
	}

	return user, nil
}

func (d *Datastore) SaveUserOAuthToken(ctx context.Context, userID, refreshToken string, expiry time.Time) error {
	sqlStatement := `
		UPDATE users SET
			google_refresh_token = ?,
			google_token_expiry = ?
		WHERE id = ?
	`
	result, err := d.writer.ExecContext(ctx, sqlStatement, refreshToken, expiry, userID)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "saving user oauth token")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ctxerr.Wrap(ctx, err, "rows affected saving user oauth token")
	}
	if rows == 0 {
		return ctxerr.Wrap(ctx, notFound("User").WithID(userID))
	}
	return nil
}

// ApplyUserSettings merges partial on top of the stored document inside a
// transaction. The row is locked for the read-merge-write so two concurrent
// updates cannot clobber each other's fields.
func (d *Datastore) ApplyUserSettings(ctx context.Context, userID string, partial scribe.UserSettings) (*scribe.UserSettings, *scribe.UserSettings, error) {
	var old, merged scribe.UserSettings

	err := d.withRetryTxx(ctx, func(tx sqlx.ExtContext) error {
		sqlStatement := `
			SELECT settings FROM users
			WHERE id = ?
			FOR UPDATE
		`
		if err := sqlx.GetContext(ctx, tx, &old, sqlStatement, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ctxerr.Wrap(ctx, notFound("User").WithID(userID))
			}
			return ctxerr.Wrap(ctx, err, "selecting user settings for update")
		}

		merged = old.Merge(partial)

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET settings = ? WHERE id = ?`,
			merged, userID,
		); err != nil {
			return ctxerr.Wrap(ctx, err, "updating user settings")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &old, &merged, nil
}
