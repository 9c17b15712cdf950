package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WatchBeam/clock"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	configpkg "github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/datastore/mysql"
	"github.com/scribehq/scribe/server/dispatch"
	"github.com/scribehq/scribe/server/identity"
	"github.com/scribehq/scribe/server/scribe"
	"github.com/scribehq/scribe/server/service"
	"github.com/scribehq/scribe/server/worker"
	"github.com/spf13/cobra"
)

func createServeCmd(configManager configpkg.Manager) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Launch the Scribe server",
		Long: `
Launch the Scribe server

Use scribe serve to run the main server. It exposes the HTTPS API, processes
the durable job queue and dispatches bots for scheduled meetings.
`,
		Run: func(cmd *cobra.Command, args []string) {
			config := configManager.LoadConfig()
			logger := initLogger(config)

			ctx, cancelFunc := context.WithCancel(context.Background())
			defer cancelFunc()

			ds, err := mysql.New(config.Mysql, clock.C, mysql.Logger(logger))
			if err != nil {
				initFatal(err, "initializing datastore")
			}
			defer ds.Close()

			redisPool := dispatch.NewRedisPool(config.Redis)
			defer redisPool.Close()
			dispatcher := dispatch.NewDispatcher(redisPool, config.Redis.JoinQueueKey)

			identityClient, err := identity.NewClient(config.Identity)
			if err != nil {
				initFatal(err, "initializing identity client")
			}

			svc, err := service.NewService(ds, identityClient, logger, config, clock.C)
			if err != nil {
				initFatal(err, "initializing service")
			}

			w := worker.NewWorker(ds, logger)
			w.Register(
				&worker.JoinMeeting{
					Datastore:  ds,
					Dispatcher: dispatcher,
					Log:        logger,
				},
				&worker.CalendarSync{
					SchedulerURL: config.Scheduler.URL,
					AuthToken:    config.Scheduler.AuthToken,
					Client:       &http.Client{Timeout: config.Scheduler.RequestTimeout},
					Log:          logger,
				},
			)

			go runWorkerLoop(ctx, w, config.Worker.ProcessInterval, logger)
			go runDispatchLoop(ctx, svc, config.Worker.DispatchInterval, logger)

			apiHandler := service.MakeHandler(svc, config, logger)

			rootMux := http.NewServeMux()
			rootMux.Handle("/api/", apiHandler)
			rootMux.Handle("/metrics", promhttp.Handler())
			rootMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				if err := ds.HealthCheck(); err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
			})

			srv := config.Server.DefaultHTTPServer(ctx, rootMux)
			srv.SetKeepAlivesEnabled(config.Server.Keepalive)

			errs := make(chan error, 2)
			go func() {
				if !config.Server.TLS {
					logger.Log("transport", "http", "address", config.Server.Address, "msg", "listening")
					errs <- srv.ListenAndServe()
				} else {
					logger.Log("transport", "https", "address", config.Server.Address, "msg", "listening")
					errs <- srv.ListenAndServeTLS(
						config.Server.Cert,
						config.Server.Key,
					)
				}
			}()
			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
				<-sig // block on signal
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				errs <- func() error {
					cancelFunc()
					return srv.Shutdown(ctx)
				}()
			}()

			logger.Log("terminated", <-errs)
		},
	}

	return serveCmd
}

// runWorkerLoop drains the durable job queue on a fixed interval until the
// context is cancelled.
func runWorkerLoop(ctx context.Context, w *worker.Worker, interval time.Duration, logger kitlog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessJobs(ctx); err != nil {
				level.Error(logger).Log("msg", "processing jobs", "err", err)
			}
		}
	}
}

// runDispatchLoop sweeps for calendar events due to start and creates their
// meetings and dispatch jobs.
func runDispatchLoop(ctx context.Context, svc scribe.Service, interval time.Duration, logger kitlog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.DispatchScheduledMeetings(ctx); err != nil {
				level.Error(logger).Log("msg", "dispatching scheduled meetings", "err", err)
			}
		}
	}
}

func initLogger(config configpkg.ScribeConfig) kitlog.Logger {
	var logger kitlog.Logger
	if config.Logging.JSON {
		logger = kitlog.NewJSONLogger(kitlog.NewSyncWriter(os.Stderr))
	} else {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	}
	if config.Logging.Debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)
}
