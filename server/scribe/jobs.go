package scribe

import (
	"encoding/json"
	"time"
)

type JobState int

// The possible states for an outbox job.
//
//	Queued ──► Success
//	   │
//	   └─────► Failure (after max retries)
const (
	JobStateQueued JobState = iota + 1
	JobStateSuccess
	JobStateFailure
)

// Job is one durable side-effect intent processed by the worker package.
// Queueing a job in the same flow that persists the primary record turns
// "might silently never happen" side effects (bot dispatch, sync trigger)
// into "will eventually happen" ones.
type Job struct {
	ID        uint             `json:"id" db:"id"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at" db:"updated_at"`
	Name      string           `json:"name" db:"name"`
	Args      *json.RawMessage `json:"args" db:"args"`
	State     JobState         `json:"state" db:"state"`
	Retries   int              `json:"retries" db:"retries"`
	Error     string           `json:"error" db:"error"`
	NotBefore time.Time        `json:"not_before" db:"not_before"`
}
