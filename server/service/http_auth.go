package service

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/scribehq/scribe/server/contexts/token"
	"github.com/scribehq/scribe/server/contexts/viewer"
	"github.com/scribehq/scribe/server/scribe"
)

// setRequestsContexts updates the request with necessary context values for a request
func setRequestsContexts(svc scribe.Service) kithttp.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		bearer := token.FromHTTPRequest(r)
		ctx = token.NewContext(ctx, bearer)
		return ctx
	}
}

// authViewer creates an authenticated viewer by validating the session key.
func authViewer(ctx context.Context, sessionKey string, svc scribe.Service) (*viewer.Viewer, error) {
	session, err := svc.GetSessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, scribe.NewAuthRequiredError(err.Error())
	}
	user, err := svc.UserUnauthorized(ctx, session.UserID)
	if err != nil {
		return nil, scribe.NewAuthRequiredError(err.Error())
	}
	return &viewer.Viewer{User: user, Session: session}, nil
}

// authenticatedUser wraps an endpoint, requires that the Scribe user is
// authenticated, and populates the context with a Viewer struct for that user.
func authenticatedUser(svc scribe.Service, next endpoint.Endpoint) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		// first check if already successfully set
		if _, ok := viewer.FromContext(ctx); ok {
			return next(ctx, request)
		}

		sessionKey, ok := token.FromContext(ctx)
		if !ok {
			return nil, scribe.NewAuthHeaderRequiredError("no auth token")
		}

		v, err := authViewer(ctx, string(sessionKey), svc)
		if err != nil {
			return nil, err
		}

		ctx = viewer.NewContext(ctx, *v)
		return next(ctx, request)
	}
}

func unauthenticatedRequest(_ scribe.Service, next endpoint.Endpoint) endpoint.Endpoint {
	return next
}
