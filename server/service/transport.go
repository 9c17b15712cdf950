package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// statuser lets response structs set a custom HTTP status for the response.
type statuser interface {
	Status() int
}

// renderHijacker lets response structs take full control of rendering, used
// for non-JSON responses such as browser redirects.
type renderHijacker interface {
	hijackRender(ctx context.Context, w http.ResponseWriter)
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}

	if hijacker, ok := response.(renderHijacker); ok {
		hijacker.hijackRender(ctx, w)
		return nil
	}

	if s, ok := response.(statuser); ok {
		w.WriteHeader(s.Status())
		if s.Status() == http.StatusNoContent {
			return nil
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}

// idFromRequest returns the string path variable with the given name from
// the request.
func idFromRequest(r *http.Request, name string) (string, error) {
	vars := mux.Vars(r)
	id, ok := vars[name]
	if !ok {
		return "", badRequest("missing " + name + " in request")
	}
	return id, nil
}
