package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/scribehq/scribe/server/scribe"
)

type handlerFunc func(ctx context.Context, request interface{}, svc scribe.Service) (errorer, error)

// parseTag parses a `url` tag and whether it's optional or not, which is an
// optional part of the tag
func parseTag(tag string) (string, bool, error) {
	parts := strings.Split(tag, ",")
	switch len(parts) {
	case 0:
		return "", false, fmt.Errorf("Error parsing %s: too few parts", tag)
	case 1:
		return tag, false, nil
	case 2:
		return parts[0], parts[1] == "optional", nil
	default:
		return "", false, fmt.Errorf("Error parsing %s: too many parts", tag)
	}
}

// makeDecoder creates a decoder for the type of the struct passed on. If the
// struct has at least 1 json tag it'll unmarshall the body into it.
//
// A `url` tag is treated as a path variable (of the form /path/{name} in the
// route's path) from the URL path pattern, and it will be decoded and set
// accordingly. A `query` tag is read from the query string. Variables can be
// optional by setting the tag as follows: `url:"some-id,optional"`.
func makeDecoder(iface interface{}) kithttp.DecodeRequestFunc {
	if iface == nil {
		return func(ctx context.Context, r *http.Request) (interface{}, error) {
			return nil, nil
		}
	}
	t := reflect.TypeOf(iface)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("makeDecoder only understands structs, not %T", iface))
	}

	return func(ctx context.Context, r *http.Request) (interface{}, error) {
		v := reflect.New(t)

		buf := bufio.NewReader(r.Body)
		if _, err := buf.Peek(1); err != io.EOF {
			req := v.Interface()
			if err := json.NewDecoder(buf).Decode(req); err != nil {
				return nil, badRequestErr("json decoder error", err)
			}
			v = reflect.ValueOf(req)
		}

		for i := 0; i < t.NumField(); i++ {
			field := v.Elem().Field(i)

			urlTagValue, ok := t.Field(i).Tag.Lookup("url")
			if ok {
				optional := false
				var err error
				urlTagValue, optional, err = parseTag(urlTagValue)
				if err != nil {
					return nil, err
				}

				vars := mux.Vars(r)
				val, ok := vars[urlTagValue]
				if !ok {
					if optional {
						continue
					}
					return nil, badRequest(fmt.Sprintf("missing %s", urlTagValue))
				}
				field.SetString(val)
			}

			queryTagValue, ok := t.Field(i).Tag.Lookup("query")
			if ok {
				optional := false
				var err error
				queryTagValue, optional, err = parseTag(queryTagValue)
				if err != nil {
					return nil, err
				}
				queryVal := r.URL.Query().Get(queryTagValue)
				// if optional and it's a ptr, leave as nil
				if queryVal == "" {
					if optional {
						continue
					}
					return nil, badRequest(fmt.Sprintf("Param %s is required", queryTagValue))
				}
				if field.Kind() == reflect.Ptr {
					// create the new instance of whatever it is
					field.Set(reflect.New(field.Type().Elem()))
					field = field.Elem()
				}
				switch field.Kind() {
				case reflect.String:
					field.SetString(queryVal)
				case reflect.Bool:
					field.SetBool(queryVal == "1" || queryVal == "true")
				case reflect.Int:
					var x int
					if _, err := fmt.Sscanf(queryVal, "%d", &x); err != nil {
						return nil, badRequestErr(fmt.Sprintf("parsing %s", queryTagValue), err)
					}
					field.SetInt(int64(x))
				default:
					return nil, fmt.Errorf("Cant handle type for field %s %s", t.Field(i).Name, field.Kind())
				}
			}
		}

		return v.Interface(), nil
	}
}

type authEndpointer struct {
	svc              scribe.Service
	opts             []kithttp.ServerOption
	r                *mux.Router
	authFunc         func(svc scribe.Service, next endpoint.Endpoint) endpoint.Endpoint
	versions         []string
	customMiddleware []endpoint.Middleware
}

func newUserAuthenticatedEndpointer(svc scribe.Service, opts []kithttp.ServerOption, r *mux.Router, versions ...string) *authEndpointer {
	return &authEndpointer{
		svc:      svc,
		opts:     opts,
		r:        r,
		authFunc: authenticatedUser,
		versions: versions,
	}
}

func newNoAuthEndpointer(svc scribe.Service, opts []kithttp.ServerOption, r *mux.Router, versions ...string) *authEndpointer {
	return &authEndpointer{
		svc:      svc,
		opts:     opts,
		r:        r,
		authFunc: unauthenticatedRequest,
		versions: versions,
	}
}

var pathReplacer = strings.NewReplacer(
	"/", "_",
	"{", "_",
	"}", "_",
)

func getNameFromPathAndVerb(verb, path string) string {
	return strings.ToLower(verb) + "_" +
		pathReplacer.Replace(strings.TrimPrefix(strings.TrimRight(path, "/"), "/api/_version_/scribe/"))
}

func (e *authEndpointer) POST(path string, f handlerFunc, v interface{}) {
	e.handleEndpoint(path, f, v, "POST")
}

func (e *authEndpointer) GET(path string, f handlerFunc, v interface{}) {
	e.handleEndpoint(path, f, v, "GET")
}

func (e *authEndpointer) PUT(path string, f handlerFunc, v interface{}) {
	e.handleEndpoint(path, f, v, "PUT")
}

func (e *authEndpointer) PATCH(path string, f handlerFunc, v interface{}) {
	e.handleEndpoint(path, f, v, "PATCH")
}

func (e *authEndpointer) DELETE(path string, f handlerFunc, v interface{}) {
	e.handleEndpoint(path, f, v, "DELETE")
}

func (e *authEndpointer) handleEndpoint(path string, f handlerFunc, v interface{}, verb string) {
	e.handleHTTPHandler(path, e.makeEndpoint(f, v), verb)
}

func (e *authEndpointer) handleHTTPHandler(path string, h http.Handler, verb string) {
	versions := append([]string{}, e.versions...)
	versions = append(versions, "latest")

	versionedPath := strings.Replace(path, "/_version_/", fmt.Sprintf("/{scribeversion:(?:%s)}/", strings.Join(versions, "|")), 1)
	nameAndVerb := getNameFromPathAndVerb(verb, path)
	e.r.Handle(versionedPath, h).Name(nameAndVerb).Methods(verb)
}

func (e *authEndpointer) makeEndpoint(f handlerFunc, v interface{}) http.Handler {
	next := func(ctx context.Context, request interface{}) (interface{}, error) {
		return f(ctx, request, e.svc)
	}
	endp := e.authFunc(e.svc, next)

	// apply middleware in reverse order so that the first wraps the second
	// wraps the third etc.
	for i := len(e.customMiddleware) - 1; i >= 0; i-- {
		mw := e.customMiddleware[i]
		endp = mw(endp)
	}

	return newServer(endp, makeDecoder(v), e.opts)
}

func newServer(e endpoint.Endpoint, decodeFn kithttp.DecodeRequestFunc, opts []kithttp.ServerOption) http.Handler {
	return kithttp.NewServer(e, decodeFn, encodeResponse, opts...)
}
