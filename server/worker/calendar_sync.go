package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

// Name of the calendar sync job as registered in the worker.
const calendarSyncJobName = "sync_calendar"

type calendarSyncArgs struct {
	UserID string `json:"user_id"`
}

// CalendarSync is the job processor that asks the external scheduler service
// to pull a user's calendar from the provider.
type CalendarSync struct {
	SchedulerURL string
	AuthToken    string
	Client       *http.Client
	Log          kitlog.Logger
}

// Name returns the name of the job.
func (c *CalendarSync) Name() string {
	return calendarSyncJobName
}

// Run executes the sync_calendar job.
func (c *CalendarSync) Run(ctx context.Context, argsJSON json.RawMessage) error {
	var args calendarSyncArgs
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return ctxerr.Wrap(ctx, err, "unmarshal args")
	}

	body, err := json.Marshal(map[string]string{"user_id": args.UserID})
	if err != nil {
		return ctxerr.Wrap(ctx, err, "marshal sync request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SchedulerURL+"/api/v1/sync", bytes.NewReader(body))
	if err != nil {
		return ctxerr.Wrap(ctx, err, "create sync request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "post sync request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little of the body for the log, the scheduler reports the
		// failure reason in plain text
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		level.Error(c.Log).Log("msg", "scheduler sync failed", "status", resp.StatusCode, "body", string(msg))
		return ctxerr.Errorf(ctx, "scheduler returned status %d", resp.StatusCode)
	}

	return nil
}

// QueueCalendarSyncJob queues a sync_calendar job for the given user.
func QueueCalendarSyncJob(ctx context.Context, ds scribe.Datastore, userID string) (*scribe.Job, error) {
	args := calendarSyncArgs{UserID: userID}
	job, err := QueueJob(ctx, ds, calendarSyncJobName, args)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "queueing job")
	}
	return job, nil
}
