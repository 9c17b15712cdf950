package service

import (
	"context"

	"github.com/go-kit/log/level"
	"github.com/scribehq/scribe/server/authz"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/scribehq/scribe/server/worker"
)

////////////////////////////////////////////////////////////////////////////////
// Join Meeting Now
////////////////////////////////////////////////////////////////////////////////

type joinMeetingNowRequest struct {
	MeetingURL string `json:"meeting_url"`
	Title      string `json:"title"`
}

type joinMeetingNowResponse struct {
	Success bool            `json:"success"`
	Meeting *scribe.Meeting `json:"meeting,omitempty"`
	Err     error           `json:"error,omitempty"`
}

func (r joinMeetingNowResponse) error() error { return r.Err }

func joinMeetingNowEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*joinMeetingNowRequest)
	meeting, err := svc.JoinMeetingNow(ctx, req.MeetingURL, req.Title)
	if err != nil {
		return joinMeetingNowResponse{Err: err}, nil
	}
	return joinMeetingNowResponse{Success: true, Meeting: meeting}, nil
}

func (svc *Service) JoinMeetingNow(ctx context.Context, meetingURL, title string) (*scribe.Meeting, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := scribe.ValidateMeetingURL(meetingURL); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "validate meeting url")
	}

	now := svc.clock.Now()
	if title == "" {
		title = scribe.DefaultMeetingTitle(vc.User.Settings.Language(), now)
	}

	meeting := &scribe.Meeting{
		UserID:          vc.UserID(),
		Title:           title,
		MeetingURL:      meetingURL,
		MeetingProvider: scribe.DetectMeetingProvider(meetingURL),
		Status:          scribe.MeetingStatusJoining,
		ScheduledStart:  &now,
	}
	meeting, err = svc.ds.NewMeeting(ctx, meeting)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "create meeting")
	}

	// The meeting row stands even when queueing the dispatch job fails; the
	// user can retry from the failed state.
	if _, err := worker.QueueJoinMeetingJob(ctx, svc.ds, meeting.ID); err != nil {
		level.Error(svc.logger).Log(
			"msg", "queueing join meeting job",
			"meeting_id", meeting.ID,
			"err", err,
		)
	}

	return meeting, nil
}

////////////////////////////////////////////////////////////////////////////////
// Timeline
////////////////////////////////////////////////////////////////////////////////

type timelineResponse struct {
	Timeline []scribe.TimelineGroup `json:"timeline"`
	Err      error                  `json:"error,omitempty"`
}

func (r timelineResponse) error() error { return r.Err }

func timelineEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	groups, err := svc.Timeline(ctx)
	if err != nil {
		return timelineResponse{Err: err}, nil
	}
	return timelineResponse{Timeline: groups}, nil
}

func (svc *Service) Timeline(ctx context.Context) ([]scribe.TimelineGroup, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := svc.clock.Now()
	meetings, err := svc.ds.ListMeetings(ctx, vc.UserID(), scribe.ListMeetingsOptions{})
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "list meetings for timeline")
	}
	events, err := svc.ds.ListUpcomingCalendarEvents(ctx, vc.UserID(), now)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "list upcoming events for timeline")
	}

	lang := vc.User.Settings.Language()
	return scribe.BuildTimeline(meetings, events, now, lang, scribe.ReferenceTimeZone()), nil
}

////////////////////////////////////////////////////////////////////////////////
// List Meetings
////////////////////////////////////////////////////////////////////////////////

type listMeetingsRequest struct {
	Status string `query:"status,optional"`
	Limit  int    `query:"limit,optional"`
	Offset int    `query:"offset,optional"`
}

type listMeetingsResponse struct {
	Meetings []*scribe.Meeting `json:"meetings"`
	Err      error             `json:"error,omitempty"`
}

func (r listMeetingsResponse) error() error { return r.Err }

func listMeetingsEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*listMeetingsRequest)
	opt := scribe.ListMeetingsOptions{
		Status: scribe.MeetingStatus(req.Status),
	}
	if req.Limit > 0 {
		opt.Limit = uint(req.Limit)
	}
	if req.Offset > 0 {
		opt.Offset = uint(req.Offset)
	}
	meetings, err := svc.ListMeetings(ctx, opt)
	if err != nil {
		return listMeetingsResponse{Err: err}, nil
	}
	return listMeetingsResponse{Meetings: meetings}, nil
}

func (svc *Service) ListMeetings(ctx context.Context, opt scribe.ListMeetingsOptions) ([]*scribe.Meeting, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if opt.Status != "" && !opt.Status.IsValid() {
		return nil, scribe.NewInvalidArgumentError("status", "unknown meeting status")
	}
	return svc.ds.ListMeetings(ctx, vc.UserID(), opt)
}

////////////////////////////////////////////////////////////////////////////////
// Get Meeting
////////////////////////////////////////////////////////////////////////////////

type getMeetingRequest struct {
	ID string `url:"id"`
}

type getMeetingResponse struct {
	Meeting *scribe.Meeting `json:"meeting,omitempty"`
	Err     error           `json:"error,omitempty"`
}

func (r getMeetingResponse) error() error { return r.Err }

func getMeetingEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*getMeetingRequest)
	meeting, err := svc.GetMeeting(ctx, req.ID)
	if err != nil {
		return getMeetingResponse{Err: err}, nil
	}
	return getMeetingResponse{Meeting: meeting}, nil
}

func (svc *Service) GetMeeting(ctx context.Context, id string) (*scribe.Meeting, error) {
	meeting, err := svc.ds.Meeting(ctx, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get meeting")
	}
	if err := authz.Authorize(ctx, meeting, authz.ActionRead); err != nil {
		return nil, err
	}
	return meeting, nil
}

////////////////////////////////////////////////////////////////////////////////
// Cancel Meeting
////////////////////////////////////////////////////////////////////////////////

type cancelMeetingRequest struct {
	ID string `url:"id"`
}

type cancelMeetingResponse struct {
	Meeting *scribe.Meeting `json:"meeting,omitempty"`
	Err     error           `json:"error,omitempty"`
}

func (r cancelMeetingResponse) error() error { return r.Err }

func cancelMeetingEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*cancelMeetingRequest)
	meeting, err := svc.CancelMeeting(ctx, req.ID)
	if err != nil {
		return cancelMeetingResponse{Err: err}, nil
	}
	return cancelMeetingResponse{Meeting: meeting}, nil
}

func (svc *Service) CancelMeeting(ctx context.Context, id string) (*scribe.Meeting, error) {
	meeting, err := svc.ds.Meeting(ctx, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get meeting to cancel")
	}
	if err := authz.Authorize(ctx, meeting, authz.ActionWrite); err != nil {
		return nil, err
	}
	if meeting.Status != scribe.MeetingStatusScheduled && meeting.Status != scribe.MeetingStatusJoining {
		return nil, &scribe.BadRequestError{
			Message: "only scheduled or joining meetings can be cancelled",
		}
	}

	meeting.Status = scribe.MeetingStatusCancelled
	if err := svc.ds.SaveMeeting(ctx, meeting); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "save cancelled meeting")
	}
	return meeting, nil
}

////////////////////////////////////////////////////////////////////////////////
// Retry Meeting
////////////////////////////////////////////////////////////////////////////////

type retryMeetingRequest struct {
	ID string `url:"id"`
}

type retryMeetingResponse struct {
	Meeting *scribe.Meeting `json:"meeting,omitempty"`
	Err     error           `json:"error,omitempty"`
}

func (r retryMeetingResponse) error() error { return r.Err }

func retryMeetingEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*retryMeetingRequest)
	meeting, err := svc.RetryMeeting(ctx, req.ID)
	if err != nil {
		return retryMeetingResponse{Err: err}, nil
	}
	return retryMeetingResponse{Meeting: meeting}, nil
}

func (svc *Service) RetryMeeting(ctx context.Context, id string) (*scribe.Meeting, error) {
	meeting, err := svc.ds.Meeting(ctx, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get meeting to retry")
	}
	if err := authz.Authorize(ctx, meeting, authz.ActionWrite); err != nil {
		return nil, err
	}
	if meeting.Status != scribe.MeetingStatusFailed {
		return nil, &scribe.BadRequestError{
			Message: "only failed meetings can be retried",
		}
	}

	meeting.Status = scribe.MeetingStatusScheduled
	meeting.RetryCount++
	meeting.ErrorMessage = nil
	if err := svc.ds.SaveMeeting(ctx, meeting); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "save retried meeting")
	}

	if _, err := worker.QueueJoinMeetingJob(ctx, svc.ds, meeting.ID); err != nil {
		level.Error(svc.logger).Log(
			"msg", "queueing join meeting job for retry",
			"meeting_id", meeting.ID,
			"err", err,
		)
	}
	return meeting, nil
}

////////////////////////////////////////////////////////////////////////////////
// Update Meeting Status
////////////////////////////////////////////////////////////////////////////////

type updateMeetingStatusRequest struct {
	ID string `url:"id"`
	scribe.MeetingLifecycleUpdate
}

type updateMeetingStatusResponse struct {
	Meeting *scribe.Meeting `json:"meeting,omitempty"`
	Err     error           `json:"error,omitempty"`
}

func (r updateMeetingStatusResponse) error() error { return r.Err }

func updateMeetingStatusEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*updateMeetingStatusRequest)
	meeting, err := svc.UpdateMeetingStatus(ctx, req.ID, req.MeetingLifecycleUpdate)
	if err != nil {
		return updateMeetingStatusResponse{Err: err}, nil
	}
	return updateMeetingStatusResponse{Meeting: meeting}, nil
}

func (svc *Service) UpdateMeetingStatus(ctx context.Context, id string, update scribe.MeetingLifecycleUpdate) (*scribe.Meeting, error) {
	meeting, err := svc.ds.Meeting(ctx, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get meeting to update")
	}
	if err := authz.Authorize(ctx, meeting, authz.ActionWrite); err != nil {
		return nil, err
	}

	if !update.Status.IsValid() {
		return nil, scribe.NewInvalidArgumentError("status", "unknown meeting status")
	}
	if !meeting.Status.CanTransition(update.Status) {
		return nil, scribe.NewInvalidArgumentError(
			"status",
			"transition from "+string(meeting.Status)+" to "+string(update.Status)+" is not allowed",
		)
	}

	now := svc.clock.Now()
	meeting.Status = update.Status
	if update.ActualStart != nil {
		meeting.ActualStart = update.ActualStart
	}
	if update.ActualEnd != nil {
		meeting.ActualEnd = update.ActualEnd
	}
	if update.DurationSeconds != nil {
		meeting.DurationSeconds = update.DurationSeconds
	}
	if update.ParticipantCount != nil {
		meeting.ParticipantCount = update.ParticipantCount
	}
	if update.ErrorMessage != nil {
		meeting.ErrorMessage = update.ErrorMessage
	}

	switch update.Status {
	case scribe.MeetingStatusRecording:
		if meeting.ActualStart == nil {
			meeting.ActualStart = &now
		}
	case scribe.MeetingStatusCompleted, scribe.MeetingStatusFailed:
		if meeting.ActualEnd == nil {
			meeting.ActualEnd = &now
		}
		if meeting.DurationSeconds == nil && meeting.ActualStart != nil {
			dur := int(meeting.ActualEnd.Sub(*meeting.ActualStart).Seconds())
			meeting.DurationSeconds = &dur
		}
	}

	if err := svc.ds.SaveMeeting(ctx, meeting); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "save meeting status")
	}
	return meeting, nil
}

////////////////////////////////////////////////////////////////////////////////
// Dispatch Scheduled Meetings (cron sweep, not an endpoint)
////////////////////////////////////////////////////////////////////////////////

func (svc *Service) DispatchScheduledMeetings(ctx context.Context) error {
	now := svc.clock.Now()
	windowEnd := now.Add(svc.config.Worker.DispatchWindow)

	events, err := svc.ds.ListDueCalendarEvents(ctx, now, windowEnd)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "list due calendar events")
	}

	for _, event := range events {
		// The due-events query only returns events with a join URL, but a bot
		// cannot join without one, so skip rather than trust the query.
		if event.MeetingURL == nil {
			continue
		}
		eventID := event.ID
		provider := scribe.ProviderOther
		if event.MeetingProvider != nil {
			provider = *event.MeetingProvider
		} else if event.MeetingURL != nil {
			provider = scribe.DetectMeetingProvider(*event.MeetingURL)
		}
		start, end := event.StartTime, event.EndTime
		meeting := &scribe.Meeting{
			UserID:          event.UserID,
			CalendarEventID: &eventID,
			Title:           event.Title,
			MeetingURL:      *event.MeetingURL,
			MeetingProvider: provider,
			Status:          scribe.MeetingStatusScheduled,
			ScheduledStart:  &start,
			ScheduledEnd:    &end,
		}
		meeting, err := svc.ds.NewMeetingForEvent(ctx, meeting)
		if err != nil {
			// another sweep already dispatched this event
			if scribe.IsExists(err) {
				continue
			}
			level.Error(svc.logger).Log(
				"msg", "creating meeting for due event",
				"calendar_event_id", eventID,
				"err", err,
			)
			continue
		}
		if _, err := worker.QueueJoinMeetingJob(ctx, svc.ds, meeting.ID); err != nil {
			level.Error(svc.logger).Log(
				"msg", "queueing join meeting job for due event",
				"meeting_id", meeting.ID,
				"err", err,
			)
		}
	}
	return nil
}
