package worker

import (
	"context"
	"encoding/json"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/dispatch"
	"github.com/scribehq/scribe/server/scribe"
)

// Name of the join meeting job as registered in the worker.
const joinMeetingJobName = "join_meeting"

type joinMeetingArgs struct {
	MeetingID string `json:"meeting_id"`
}

// MeetingDispatcher pushes join requests onto the bot queue.
type MeetingDispatcher interface {
	EnqueueJoinRequest(ctx context.Context, req dispatch.JoinRequest) error
}

// JoinMeeting is the job processor that hands a meeting to the recording
// bot runners. It resolves the owner's bot preferences at execution time, so a
// preference change between queue and dispatch is honored.
type JoinMeeting struct {
	Datastore  scribe.Datastore
	Dispatcher MeetingDispatcher
	Log        kitlog.Logger
}

// Name returns the name of the job.
func (j *JoinMeeting) Name() string {
	return joinMeetingJobName
}

// Run executes the join_meeting job.
func (j *JoinMeeting) Run(ctx context.Context, argsJSON json.RawMessage) error {
	var args joinMeetingArgs
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return ctxerr.Wrap(ctx, err, "unmarshal args")
	}

	meeting, err := j.Datastore.Meeting(ctx, args.MeetingID)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "load meeting")
	}

	// A meeting cancelled between queue and dispatch must not reach the bot
	// runners.
	if meeting.Status != scribe.MeetingStatusScheduled && meeting.Status != scribe.MeetingStatusJoining {
		level.Info(j.Log).Log("msg", "skipping dispatch, meeting no longer pending", "meeting_id", meeting.ID, "status", meeting.Status)
		return nil
	}

	user, err := j.Datastore.UserByID(ctx, meeting.UserID)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "load meeting owner")
	}

	req := dispatch.JoinRequest{
		MeetingID:        meeting.ID,
		MeetingURL:       meeting.MeetingURL,
		UserID:           meeting.UserID,
		BotDisplayName:   user.Settings.BotName(),
		BotCameraEnabled: user.Settings.BotCamera(),
	}
	if err := j.Dispatcher.EnqueueJoinRequest(ctx, req); err != nil {
		return ctxerr.Wrap(ctx, err, "enqueue join request")
	}

	if meeting.Status == scribe.MeetingStatusScheduled {
		meeting.Status = scribe.MeetingStatusJoining
		if err := j.Datastore.SaveMeeting(ctx, meeting); err != nil {
			return ctxerr.Wrap(ctx, err, "mark meeting joining")
		}
	}

	return nil
}

// QueueJoinMeetingJob queues a join_meeting job for the given meeting.
func QueueJoinMeetingJob(ctx context.Context, ds scribe.Datastore, meetingID string) (*scribe.Job, error) {
	args := joinMeetingArgs{MeetingID: meetingID}
	job, err := QueueJob(ctx, ds, joinMeetingJobName, args)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "queueing job")
	}
	return job, nil
}
