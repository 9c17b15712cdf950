package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/go-kit/log/level"
	"github.com/scribehq/scribe/server/authz"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/scribehq/scribe/server/worker"
)

////////////////////////////////////////////////////////////////////////////////
// Get Preferences
////////////////////////////////////////////////////////////////////////////////

type getPreferencesResponse struct {
	Settings *scribe.UserSettings `json:"settings,omitempty"`
	Err      error                `json:"error,omitempty"`
}

func (r getPreferencesResponse) error() error { return r.Err }

func getPreferencesEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	settings, err := svc.Preferences(ctx)
	if err != nil {
		return getPreferencesResponse{Err: err}, nil
	}
	return getPreferencesResponse{Settings: settings}, nil
}

func (svc *Service) Preferences(ctx context.Context) (*scribe.UserSettings, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := svc.ds.UserByID(ctx, vc.UserID())
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "get user for preferences")
	}
	settings := user.Settings.WithDefaults()
	return &settings, nil
}

////////////////////////////////////////////////////////////////////////////////
// Update Preferences
////////////////////////////////////////////////////////////////////////////////

type updatePreferencesRequest struct {
	Settings scribe.UserSettings
}

// UnmarshalJSON rejects unknown preference keys instead of silently dropping
// them.
func (r *updatePreferencesRequest) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(&r.Settings)
}

type updatePreferencesResponse struct {
	Settings      *scribe.UserSettings `json:"settings,omitempty"`
	SyncTriggered bool                 `json:"sync_triggered"`
	Err           error                `json:"error,omitempty"`
}

func (r updatePreferencesResponse) error() error { return r.Err }

func updatePreferencesEndpoint(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error) {
	req := request.(*updatePreferencesRequest)
	merged, syncTriggered, err := svc.ApplyPreferenceUpdate(ctx, req.Settings)
	if err != nil {
		return updatePreferencesResponse{Err: err}, nil
	}
	return updatePreferencesResponse{Settings: merged, SyncTriggered: syncTriggered}, nil
}

func (svc *Service) ApplyPreferenceUpdate(ctx context.Context, partial scribe.UserSettings) (*scribe.UserSettings, bool, error) {
	vc, err := authz.UserFromContext(ctx)
	if err != nil {
		return nil, false, err
	}

	old, merged, err := svc.ds.ApplyUserSettings(ctx, vc.UserID(), partial)
	if err != nil {
		return nil, false, ctxerr.Wrap(ctx, err, "apply user settings")
	}

	// The sync fires only when the update flips auto_sync_calendar from
	// falsy or absent to true, not on every save with the flag on.
	syncTriggered := old.SyncTriggeredBy(partial)
	if syncTriggered {
		if _, err := worker.QueueCalendarSyncJob(ctx, svc.ds, vc.UserID()); err != nil {
			level.Error(svc.logger).Log(
				"msg", "queueing calendar sync after preference update",
				"user_id", vc.UserID(),
				"err", err,
			)
		}
	}

	withDefaults := merged.WithDefaults()
	return &withDefaults, syncTriggered, nil
}
