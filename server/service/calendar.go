package service

import (
	"context"
	"net/http"
	"time"

	"github.com/go-kit/log/level"
	"github.com/scribehq/scribe/server/authz"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/ptr"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/scribehq/scribe/server/worker"
)

// onboardingURL is where a plain login lands when the user has not connected
// a calendar yet.
const onboardingURL = "/onboarding"

////////////////////////////////////////////////////////////////////////////////
// OAuth Callback
////////////////////////////////////////////////////////////////////////////////

type oauthCallbackRequest struct {
	Code string `query:"code"`
}

type oauthCallbackResponse struct {
	redirectURL string
	Err         error `json:"error,omitempty"`
}

func (r oauthCallbackResponse) error() error { return r.Err }

// hijackRender renders the response as a browser redirect instead of JSON.
func (r oauthCallbackResponse) hijackRender(ctx context.Context, w http.ResponseWriter) {
	w.Header().Set("Location", r.redirectURL)
	w.WriteHeader(http.StatusSeeOther)
}

func oauthCallbackEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*oauthCallbackRequest)
	redirect, err := svc.CompleteOAuthCallback(ctx, req.Code)
	if err != nil {
		return oauthCallbackResponse{Err: err}, nil
	}
	return oauthCallbackResponse{redirectURL: redirect}, nil
}

func (svc *Service) CompleteOAuthCallback(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", &scribe.BadRequestError{Message: "missing authorization code"}
	}

	session, err := svc.identity.ExchangeCodeForSession(ctx, code)
	if err != nil {
		// The code is single-use and already consumed or invalid; nothing was
		// mutated, send the browser to the error page.
		level.Info(svc.logger).Log("msg", "oauth code exchange failed", "err", err)
		return svc.config.Identity.FailureURL, nil
	}

	logger := level.Info(svc.logger)

	if session.ProviderRefreshToken == "" {
		// Plain login without calendar scope.
		hasCalendar, err := svc.ds.HasActiveConnectedCalendar(ctx, session.UserID)
		if err != nil {
			logger.Log("msg", "checking connected calendars", "user_id", session.UserID, "err", err)
			return svc.config.Identity.SuccessURL, nil
		}
		if !hasCalendar {
			return onboardingURL, nil
		}
		return svc.config.Identity.SuccessURL, nil
	}

	expiry := svc.clock.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	if err := svc.ds.SaveUserOAuthToken(ctx, session.UserID, session.ProviderRefreshToken, expiry); err != nil {
		logger.Log("msg", "persisting oauth token", "user_id", session.UserID, "err", err)
		return svc.config.Identity.FailureURL, nil
	}

	// Everything past the token persist is best effort: the user can always
	// trigger a sync by hand, so the browser lands on the dashboard either
	// way.
	cal := &scribe.ConnectedCalendar{
		UserID:       session.UserID,
		Provider:     scribe.CalendarProviderGoogle,
		CalendarID:   scribe.PrimaryCalendarID,
		CalendarName: "Google Calendar",
		IsActive:     true,
		IsPrimary:    true,
	}
	created, err := svc.ds.UpsertConnectedCalendar(ctx, cal)
	if err != nil {
		logger.Log("msg", "upserting connected calendar", "user_id", session.UserID, "err", err)
		return svc.config.Identity.SuccessURL, nil
	}

	if created {
		partial := scribe.UserSettings{AutoSyncCalendar: ptr.Bool(true)}
		if _, _, err := svc.ds.ApplyUserSettings(ctx, session.UserID, partial); err != nil {
			logger.Log("msg", "enabling auto sync on first connection", "user_id", session.UserID, "err", err)
		}
		if _, err := worker.QueueCalendarSyncJob(ctx, svc.ds, session.UserID); err != nil {
			logger.Log("msg", "queueing initial calendar sync", "user_id", session.UserID, "err", err)
		}
	}

	return svc.config.Identity.SuccessURL, nil
}

////////////////////////////////////////////////////////////////////////////////
// List Calendar Events
////////////////////////////////////////////////////////////////////////////////

const (
	defaultEventWindowHours = 24
	maxEventWindowHours     = 7 * 24
)

type listCalendarEventsRequest struct {
	Hours       int  `query:"hours,optional"`
	IncludePast bool `query:"include_past,optional"`
}

type listCalendarEventsResponse struct {
	Events []*scribe.CalendarEvent `json:"events"`
	Err    error                   `json:"error,omitempty"`
}

func (r listCalendarEventsResponse) error() error { return r.Err }

func listCalendarEventsEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*listCalendarEventsRequest)
	events, err := svc.ListCalendarEvents(ctx, scribe.ListCalendarEventsOptions{
		HoursAhead:  req.Hours,
		IncludePast: req.IncludePast,
	})
	if err != nil {
		return listCalendarEventsResponse{Err: err}, nil
	}
	return listCalendarEventsResponse{Events: events}, nil
}

func (svc *Service) ListCalendarEvents(ctx context.Context, opt scribe.ListCalendarEventsOptions) ([]*scribe.CalendarEvent, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if opt.HoursAhead <= 0 {
		opt.HoursAhead = defaultEventWindowHours
	}
	if opt.HoursAhead > maxEventWindowHours {
		opt.HoursAhead = maxEventWindowHours
	}
	return svc.ds.ListCalendarEvents(ctx, vc.UserID(), opt)
}

////////////////////////////////////////////////////////////////////////////////
// Exclude Calendar Event
////////////////////////////////////////////////////////////////////////////////

type excludeCalendarEventRequest struct {
	ID string `url:"id"`
	// Excluded defaults to true when the body omits it.
	Excluded *bool `json:"excluded"`
}

type excludeCalendarEventResponse struct {
	EventID  string `json:"event_id,omitempty"`
	Excluded bool   `json:"excluded"`
	Err      error  `json:"error,omitempty"`
}

func (r excludeCalendarEventResponse) error() error { return r.Err }

func excludeCalendarEventEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*excludeCalendarEventRequest)
	excluded := true
	if req.Excluded != nil {
		excluded = *req.Excluded
	}
	event, err := svc.ExcludeCalendarEvent(ctx, req.ID, excluded)
	if err != nil {
		return excludeCalendarEventResponse{Err: err}, nil
	}
	return excludeCalendarEventResponse{EventID: event.ID, Excluded: event.IsExcluded}, nil
}

func (svc *Service) ExcludeCalendarEvent(ctx context.Context, id string, excluded bool) (*scribe.CalendarEvent, error) {
	event, err := svc.ds.CalendarEvent(ctx, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get calendar event to exclude")
	}
	if err := authz.Authorize(ctx, event, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := svc.ds.SetCalendarEventExcluded(ctx, id, excluded); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "set calendar event excluded")
	}
	event.IsExcluded = excluded
	return event, nil
}

////////////////////////////////////////////////////////////////////////////////
// Set Calendar Event Should Record
////////////////////////////////////////////////////////////////////////////////

type setShouldRecordRequest struct {
	ID           string `url:"id"`
	ShouldRecord *bool  `json:"should_record"`
}

type setShouldRecordResponse struct {
	Event *scribe.CalendarEvent `json:"event,omitempty"`
	Err   error                 `json:"error,omitempty"`
}

func (r setShouldRecordResponse) error() error { return r.Err }

func setShouldRecordEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*setShouldRecordRequest)
	if req.ShouldRecord == nil {
		return setShouldRecordResponse{Err: &scribe.BadRequestError{Message: "should_record is required"}}, nil
	}
	event, err := svc.SetCalendarEventShouldRecord(ctx, req.ID, *req.ShouldRecord)
	if err != nil {
		return setShouldRecordResponse{Err: err}, nil
	}
	return setShouldRecordResponse{Event: event}, nil
}

func (svc *Service) SetCalendarEventShouldRecord(ctx context.Context, id string, shouldRecord bool) (*scribe.CalendarEvent, error) {
	event, err := svc.ds.CalendarEvent(ctx, id)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get calendar event to update")
	}
	if err := authz.Authorize(ctx, event, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := svc.ds.SetCalendarEventShouldRecord(ctx, id, shouldRecord); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "set calendar event should record")
	}
	event.ShouldRecord = shouldRecord
	return event, nil
}

////////////////////////////////////////////////////////////////////////////////
// List Connected Calendars
////////////////////////////////////////////////////////////////////////////////

type listConnectedCalendarsResponse struct {
	Calendars []*scribe.ConnectedCalendar `json:"calendars"`
	Err       error                       `json:"error,omitempty"`
}

func (r listConnectedCalendarsResponse) error() error { return r.Err }

func listConnectedCalendarsEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	calendars, err := svc.ListConnectedCalendars(ctx)
	if err != nil {
		return listConnectedCalendarsResponse{Err: err}, nil
	}
	return listConnectedCalendarsResponse{Calendars: calendars}, nil
}

func (svc *Service) ListConnectedCalendars(ctx context.Context) ([]*scribe.ConnectedCalendar, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return svc.ds.ListConnectedCalendars(ctx, vc.UserID())
}

////////////////////////////////////////////////////////////////////////////////
// Disconnect Calendar
////////////////////////////////////////////////////////////////////////////////

type disconnectCalendarRequest struct {
	ID string `url:"id"`
}

type disconnectCalendarResponse struct {
	Err error `json:"error,omitempty"`
}

func (r disconnectCalendarResponse) error() error { return r.Err }
func (r disconnectCalendarResponse) Status() int  { return http.StatusNoContent }

func disconnectCalendarEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*disconnectCalendarRequest)
	if err := svc.DisconnectCalendar(ctx, req.ID); err != nil {
		return disconnectCalendarResponse{Err: err}, nil
	}
	return disconnectCalendarResponse{}, nil
}

func (svc *Service) DisconnectCalendar(ctx context.Context, id string) error {
	cal, err := svc.ds.ConnectedCalendar(ctx, id)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "get connected calendar to disconnect")
	}
	if err := authz.Authorize(ctx, cal, authz.ActionWrite); err != nil {
		return err
	}
	if err := svc.ds.SetConnectedCalendarActive(ctx, id, false); err != nil {
		return ctxerr.Wrap(ctx, err, "deactivate connected calendar")
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// Trigger Calendar Sync
////////////////////////////////////////////////////////////////////////////////

type triggerCalendarSyncResponse struct {
	JobID uint  `json:"job_id,omitempty"`
	Err   error `json:"error,omitempty"`
}

func (r triggerCalendarSyncResponse) error() error { return r.Err }

func triggerCalendarSyncEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	jobID, err := svc.TriggerCalendarSync(ctx)
	if err != nil {
		return triggerCalendarSyncResponse{Err: err}, nil
	}
	return triggerCalendarSyncResponse{JobID: jobID}, nil
}

func (svc *Service) TriggerCalendarSync(ctx context.Context) (uint, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return 0, err
	}
	job, err := worker.QueueCalendarSyncJob(ctx, svc.ds, vc.UserID())
	if err != nil {
		return 0, ctxerr.Wrap(ctx, err, "queue calendar sync job")
	}
	return job.ID, nil
}
