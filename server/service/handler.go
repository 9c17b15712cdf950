package service

import (
	"context"
	"errors"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/scribe"
)

type errorHandler struct {
	logger kitlog.Logger
}

func (h *errorHandler) Handle(ctx context.Context, err error) {
	// get the request path
	path, _ := ctx.Value(kithttp.ContextKeyRequestPath).(string)
	logger := level.Info(kitlog.With(h.logger, "path", path))

	var ewi scribe.ErrWithInternal
	if errors.As(err, &ewi) {
		logger = kitlog.With(logger, "internal", ewi.Internal())
	}

	var ewlf scribe.ErrWithLogFields
	if errors.As(err, &ewlf) {
		logger = kitlog.With(logger, ewlf.LogFields()...)
	}

	logger.Log("err", err)
}

// MakeHandler creates an HTTP handler for the Scribe server endpoints.
func MakeHandler(
	svc scribe.Service,
	config config.ScribeConfig,
	logger kitlog.Logger,
) http.Handler {
	scribeAPIOptions := []kithttp.ServerOption{
		kithttp.ServerBefore(
			kithttp.PopulateRequestContext, // populate the request context with common fields
			setRequestsContexts(svc),
		),
		kithttp.ServerErrorHandler(&errorHandler{logger}),
		kithttp.ServerErrorEncoder(encodeError),
		kithttp.ServerAfter(
			kithttp.SetContentType("application/json; charset=utf-8"),
		),
	}

	r := mux.NewRouter()
	attachScribeAPIRoutes(r, svc, scribeAPIOptions)
	addMetrics(r)

	return r
}

func attachScribeAPIRoutes(r *mux.Router, svc scribe.Service, opts []kithttp.ServerOption) {
	apiVersions := []string{"v1"}

	// unauthenticated endpoints: the OAuth callback authenticates through the
	// authorization code itself.
	ne := newNoAuthEndpointer(svc, opts, r, apiVersions...)
	ne.GET("/api/_version_/scribe/auth/callback", oauthCallbackEndpoint, oauthCallbackRequest{})

	// user-authenticated endpoints
	ue := newUserAuthenticatedEndpointer(svc, opts, r, apiVersions...)

	// register /meetings/timeline before /meetings/{id} so mux matches the
	// literal path first.
	ue.GET("/api/_version_/scribe/meetings/timeline", timelineEndpoint, nil)

	ue.POST("/api/_version_/scribe/meetings/join", joinMeetingNowEndpoint, joinMeetingNowRequest{})
	ue.GET("/api/_version_/scribe/meetings", listMeetingsEndpoint, listMeetingsRequest{})
	ue.GET("/api/_version_/scribe/meetings/{id}", getMeetingEndpoint, getMeetingRequest{})
	ue.POST("/api/_version_/scribe/meetings/{id}/cancel", cancelMeetingEndpoint, cancelMeetingRequest{})
	ue.POST("/api/_version_/scribe/meetings/{id}/retry", retryMeetingEndpoint, retryMeetingRequest{})
	ue.PATCH("/api/_version_/scribe/meetings/{id}/status", updateMeetingStatusEndpoint, updateMeetingStatusRequest{})

	ue.GET("/api/_version_/scribe/calendar/events", listCalendarEventsEndpoint, listCalendarEventsRequest{})
	ue.PATCH("/api/_version_/scribe/calendar/events/{id}/exclude", excludeCalendarEventEndpoint, excludeCalendarEventRequest{})
	ue.PATCH("/api/_version_/scribe/calendar/events/{id}", setShouldRecordEndpoint, setShouldRecordRequest{})

	ue.GET("/api/_version_/scribe/calendar/connected", listConnectedCalendarsEndpoint, nil)
	ue.DELETE("/api/_version_/scribe/calendar/connected/{id}", disconnectCalendarEndpoint, disconnectCalendarRequest{})
	ue.POST("/api/_version_/scribe/calendar/sync", triggerCalendarSyncEndpoint, nil)

	ue.GET("/api/_version_/scribe/settings/preferences", getPreferencesEndpoint, nil)
	ue.PATCH("/api/_version_/scribe/settings/preferences", updatePreferencesEndpoint, updatePreferencesRequest{})
}

// PrometheusMetricsHandler wraps the provided handler with prometheus metrics
// middleware and returns the resulting handler that should be mounted for that
// route.
func PrometheusMetricsHandler(name string, handler http.Handler) http.Handler {
	reg := prometheus.DefaultRegisterer
	registerOrExisting := func(coll prometheus.Collector) prometheus.Collector {
		if err := reg.Register(coll); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector
			}
			panic(err)
		}
		return coll
	}

	reqCnt := registerOrExisting(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests made.",
			ConstLabels: prometheus.Labels{"handler": name},
		},
		[]string{"method", "code"},
	)).(*prometheus.CounterVec)

	reqDur := registerOrExisting(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "The HTTP request latencies in seconds.",
			ConstLabels: prometheus.Labels{"handler": name},
			// Use default buckets, as they are suited for durations.
		},
		nil,
	)).(*prometheus.HistogramVec)

	// 1KB, 100KB, 1MB, 100MB, 1GB
	sizeBuckets := []float64{1024, 100 * 1024, 1024 * 1024, 100 * 1024 * 1024, 1024 * 1024 * 1024}

	resSz := registerOrExisting(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem:   "http",
			Name:        "response_size_bytes",
			Help:        "The HTTP response sizes in bytes.",
			ConstLabels: prometheus.Labels{"handler": name},
			Buckets:     sizeBuckets,
		},
		nil,
	)).(*prometheus.HistogramVec)

	reqSz := registerOrExisting(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem:   "http",
			Name:        "request_size_bytes",
			Help:        "The HTTP request sizes in bytes.",
			ConstLabels: prometheus.Labels{"handler": name},
			Buckets:     sizeBuckets,
		},
		nil,
	)).(*prometheus.HistogramVec)

	return promhttp.InstrumentHandlerDuration(reqDur,
		promhttp.InstrumentHandlerCounter(reqCnt,
			promhttp.InstrumentHandlerResponseSize(resSz,
				promhttp.InstrumentHandlerRequestSize(reqSz, handler))))
}

// addMetrics decorates each handler with prometheus instrumentation
func addMetrics(r *mux.Router) {
	walkFn := func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		route.Handler(PrometheusMetricsHandler(route.GetName(), route.GetHandler()))
		return nil
	}
	r.Walk(walkFn)
}
