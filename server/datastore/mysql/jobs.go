package mysql

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

func (d *Datastore) NewJob(ctx context.Context, job *scribe.Job) (*scribe.Job, error) {
	query := `
INSERT INTO jobs (
    name,
    args,
    state,
    retries,
    error,
    not_before
)
VALUES (?, ?, ?, ?, ?, COALESCE(?, NOW()))
`
	var notBefore *time.Time
	if !job.NotBefore.IsZero() {
		notBefore = &job.NotBefore
	}
	result, err := d.writer.ExecContext(ctx, query, job.Name, job.Args, job.State, job.Retries, job.Error, notBefore)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "inserting job")
	}

	id, _ := result.LastInsertId()
	job.ID = uint(id)

	return job, nil
}

func (d *Datastore) GetQueuedJobs(ctx context.Context, maxNumJobs int, now time.Time) ([]*scribe.Job, error) {
	query := `
SELECT
    id, created_at, updated_at, name, args, state, retries, error, not_before
FROM
    jobs
WHERE
    state = ? AND
    not_before <= ?
ORDER BY
    updated_at ASC
LIMIT ?
`

	if now.IsZero() {
		now = time.Now().UTC()
	}

	var jobs []*scribe.Job
	err := sqlx.SelectContext(ctx, d.reader, &jobs, query, scribe.JobStateQueued, now, maxNumJobs)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "selecting queued jobs")
	}

	return jobs, nil
}

func (d *Datastore) UpdateJob(ctx context.Context, id uint, job *scribe.Job) (*scribe.Job, error) {
	query := `
UPDATE jobs
SET
    state = ?,
    retries = ?,
    error = ?,
    not_before = COALESCE(?, NOW())
WHERE
    id = ?
`
	var notBefore *time.Time
	if !job.NotBefore.IsZero() {
		notBefore = &job.NotBefore
	}
	_, err := d.writer.ExecContext(ctx, query, job.State, job.Retries, job.Error, notBefore, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "updating job")
	}

	return job, nil
}
