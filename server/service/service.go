// Package service holds the implementation of the scribe interface and HTTP
// endpoints for the API
package service

import (
	"context"

	"github.com/WatchBeam/clock"
	kitlog "github.com/go-kit/log"
	"github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

// Service is the struct implementing scribe.Service. Create a new one with NewService.
type Service struct {
	ds       scribe.Datastore
	identity scribe.IdentityProvider
	logger   kitlog.Logger
	config   config.ScribeConfig
	clock    clock.Clock
}

// NewService creates a new service from the config struct
func NewService(
	ds scribe.Datastore,
	identity scribe.IdentityProvider,
	logger kitlog.Logger,
	config config.ScribeConfig,
	c clock.Clock,
) (scribe.Service, error) {
	svc := &Service{
		ds:       ds,
		identity: identity,
		logger:   logger,
		config:   config,
		clock:    c,
	}
	return svc, nil
}

// GetSessionByKey returns the session matching the bearer key and touches
// its access timestamp.
func (svc *Service) GetSessionByKey(ctx context.Context, key string) (*scribe.Session, error) {
	session, err := svc.ds.SessionByKey(ctx, key)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "session by key")
	}
	if err := svc.ds.MarkSessionAccessed(ctx, session); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "mark session accessed")
	}
	return session, nil
}

// UserUnauthorized returns the user with the given id. It is exempt from
// authorization checks because it runs before the viewer exists; never
// expose it through an endpoint.
func (svc *Service) UserUnauthorized(ctx context.Context, id string) (*scribe.User, error) {
	return svc.ds.UserByID(ctx, id)
}
