// Package worker processes the durable jobs queued in the datastore. Side
// effects with external collaborators (the bot queue, the calendar
// scheduler) run through here so a transient failure is retried instead of
// lost.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

type ctxKey int

const (
	maxRetries = 5

	// context key for the retry number of a job, made available via the context
	// to the job processor.
	retryNumberCtxKey = ctxKey(0)
)

// Job defines an interface for jobs that can be run by the Worker
type Job interface {
	// Name is the unique name of the job.
	Name() string

	// Run performs the actual work.
	Run(ctx context.Context, argsJSON json.RawMessage) error
}

// Worker runs jobs. NOT SAFE FOR CONCURRENT USE.
type Worker struct {
	ds  scribe.Datastore
	log kitlog.Logger

	// For tests only, allows ignoring unknown jobs instead of failing them.
	TestIgnoreUnknownJobs bool

	registry map[string]Job
}

func NewWorker(ds scribe.Datastore, log kitlog.Logger) *Worker {
	return &Worker{
		ds:       ds,
		log:      log,
		registry: make(map[string]Job),
	}
}

func (w *Worker) Register(jobs ...Job) {
	for _, j := range jobs {
		name := j.Name()
		if _, ok := w.registry[name]; ok {
			panic(fmt.Sprintf("job %s already registered", name))
		}
		w.registry[name] = j
	}
}

// QueueJob inserts a job to be processed by the worker for the job processor
// identified by the name (e.g. "join_meeting"). The args value is marshaled
// as JSON and provided to the job processor when the job is executed.
func QueueJob(ctx context.Context, ds scribe.Datastore, name string, args interface{}) (*scribe.Job, error) {
	return QueueJobWithDelay(ctx, ds, name, args, 0)
}

// QueueJobWithDelay is like QueueJob but does not make the job available
// before a specified delay (or no delay if delay is <= 0).
func QueueJobWithDelay(ctx context.Context, ds scribe.Datastore, name string, args interface{}, delay time.Duration) (*scribe.Job, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "marshal args")
	}

	var notBefore time.Time
	if delay > 0 {
		notBefore = time.Now().UTC().Add(delay)
	}
	job := &scribe.Job{
		Name:      name,
		Args:      (*json.RawMessage)(&argsJSON),
		State:     scribe.JobStateQueued,
		NotBefore: notBefore,
	}

	return ds.NewJob(ctx, job)
}

// this defines the delays to add between retries (i.e. how the "not_before"
// timestamp of a job will be set for the next run). Keep in mind that at a
// minimum, the job will not be retried before the next cron run of the worker,
// but we want to ensure a minimum delay before retries to give a chance to
// e.g. transient network issues to resolve themselves.
var delayPerRetry = []time.Duration{
	1: 0, // i.e. for the first retry, do it ASAP (on the next worker run)
	2: 5 * time.Minute,
	3: 10 * time.Minute,
	4: 1 * time.Hour,
	5: 2 * time.Hour,
}

// ProcessJobs processes all queued jobs.
func (w *Worker) ProcessJobs(ctx context.Context) error {
	const maxNumJobs = 100

	// process jobs until there are none left or the context is cancelled
	seen := make(map[uint]struct{})
	for {
		jobs, err := w.ds.GetQueuedJobs(ctx, maxNumJobs, time.Time{})
		if err != nil {
			return ctxerr.Wrap(ctx, err, "get queued jobs")
		}

		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return ctxerr.Wrap(ctx, ctx.Err(), "context done")
			default:
			}

			log := kitlog.With(w.log, "job_id", job.ID)

			if _, ok := seen[job.ID]; ok {
				level.Debug(log).Log("msg", "some jobs failed, retrying on next cron execution")
				return nil
			}
			seen[job.ID] = struct{}{}

			level.Debug(log).Log("msg", "processing job")

			if err := w.processJob(ctx, job); err != nil {
				level.Error(log).Log("msg", "process job", "err", err)
				job.Error = err.Error()
				if job.Retries < maxRetries {
					level.Debug(log).Log("msg", "will retry job")
					job.Retries += 1
					if job.Retries < len(delayPerRetry) {
						job.NotBefore = time.Now().Add(delayPerRetry[job.Retries])
					}
				} else {
					job.State = scribe.JobStateFailure
				}
			} else {
				job.State = scribe.JobStateSuccess
				job.Error = ""
			}

			// When we update the job, the updated_at timestamp gets updated and the job gets "pushed" to the back
			// of queue. GetQueuedJobs fetches jobs by updated_at, so it will not return the same job until the queue
			// has been processed once.
			if _, err := w.ds.UpdateJob(ctx, job.ID, job); err != nil {
				level.Error(log).Log("update job", "err", err)
			}
		}
	}

	return nil
}

func (w *Worker) processJob(ctx context.Context, job *scribe.Job) error {
	j, ok := w.registry[job.Name]
	if !ok {
		if w.TestIgnoreUnknownJobs {
			return nil
		}
		return ctxerr.Errorf(ctx, "unknown job: %s", job.Name)
	}

	var args json.RawMessage
	if job.Args != nil {
		args = *job.Args
	}

	ctx = context.WithValue(ctx, retryNumberCtxKey, job.Retries)
	return j.Run(ctx, args)
}

// RetryNumberFromContext returns the retry number of the currently running
// job, 0 for the first attempt.
func RetryNumberFromContext(ctx context.Context) int {
	n, _ := ctx.Value(retryNumberCtxKey).(int)
	return n
}
