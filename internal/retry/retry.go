// Package retry runs an operation a bounded number of times with a fixed
// delay between failed attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// Policy bounds the attempts of an operation.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns three attempts two seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

type immediateError struct{ err error }

func (e immediateError) Error() string { return e.err.Error() }
func (e immediateError) Unwrap() error { return e.err }

// Immediate marks err as retryable without waiting for the policy delay.
func Immediate(err error) error {
	if err == nil {
		return nil
	}
	return immediateError{err}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Do calls fn until it succeeds, returns a Permanent error, or the attempts
// run out. attempt counts from 1. The returned error is the last one fn
// produced, with Immediate and Permanent markers removed.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 1; attempt <= limit; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}

		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		var imm immediateError
		immediate := errors.As(err, &imm)
		if immediate {
			err = imm.err
		}

		if attempt == limit {
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			return err
		}
		if !immediate && p.Delay > 0 {
			if serr := sleep(ctx, p.Delay); serr != nil {
				return err
			}
		}
	}
	return err
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
