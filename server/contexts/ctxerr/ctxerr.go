// Package ctxerr provides functions to wrap errors with annotations and
// stack traces.
//
// Typical uses of this package should be to call New or Wrap[f] as close as
// possible from where the error is encountered (or where it needs to be
// created for New). It is fine to wrap the error with more annotations along
// the way, by calling Wrap[f].
package ctxerr

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rotisserie/eris"
)

// New creates a new error with the provided error message.
func New(ctx context.Context, errMsg string) error {
	return ensureCommonMetadata(ctx, errors.New(errMsg))
}

// Errorf creates a new error with the provided formatted message.
func Errorf(ctx context.Context, format string, args ...interface{}) error {
	return ensureCommonMetadata(ctx, errors.Errorf(format, args...))
}

// Wrap annotates err with the provided message, if any.
func Wrap(ctx context.Context, err error, msg ...string) error {
	err = ensureCommonMetadata(ctx, err)
	// do not wrap with eris.Wrap, as we want only the root error closest to
	// the actual error condition to capture the stack trace, others just
	// wrap using pkg/errors.
	if len(msg) == 0 {
		return err
	}
	return errors.Wrap(err, msg[0])
}

// Wrapf annotates err with the provided formatted message.
func Wrapf(ctx context.Context, err error, fmsg string, args ...interface{}) error {
	err = ensureCommonMetadata(ctx, err)
	return errors.Wrapf(err, fmsg, args...)
}

// Cause returns the root cause of err, unwrapping the whole chain.
func Cause(err error) error {
	for {
		uerr := errors.Unwrap(err)
		if uerr == nil {
			return err
		}
		err = uerr
	}
}

func ensureCommonMetadata(ctx context.Context, err error) error {
	var sf interface{ StackFrames() []uintptr }
	if err != nil && !errors.As(err, &sf) {
		// no eris error anywhere in the chain, add the metadata with the
		// stack trace
		err = eris.Wrapf(err, "timestamp: %s", time.Now().Format(time.RFC3339))
	}
	return err
}
