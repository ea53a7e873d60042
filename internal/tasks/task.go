package tasks

import (
	"context"
	"errors"
)

// State is the outcome reported by Task.Poll.
type State int

const (
	Pending   State = iota // still queued or running
	Ready                  // value taken by this poll
	Cancelled              // stopped by its context or pool shutdown
	Failed                 // job returned an error or panicked
	Consumed               // outcome already taken by an earlier poll
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	case Consumed:
		return "consumed"
	default:
		return "unknown"
	}
}

type result[T any] struct {
	v   T
	err error
}

// Task is the handle of a spawned job. Its outcome can be taken exactly
// once; Poll must be called from a single goroutine.
type Task[T any] struct {
	ch     chan result[T]
	cancel context.CancelFunc

	taken bool
	err   error
}

// Poll checks for the job's outcome without blocking. The first poll after
// completion takes the outcome; every later poll reports Consumed.
func (t *Task[T]) Poll() (T, State) {
	var zero T
	if t.taken {
		return zero, Consumed
	}
	select {
	case r := <-t.ch:
		t.taken = true
		t.err = r.err
		switch {
		case r.err == nil:
			return r.v, Ready
		case isCancellation(r.err):
			return zero, Cancelled
		default:
			return zero, Failed
		}
	default:
		return zero, Pending
	}
}

// Err returns the error taken by Poll, if any.
func (t *Task[T]) Err() error { return t.err }

// Cancel requests the job to stop. A job that has not started yet never runs.
func (t *Task[T]) Cancel() { t.cancel() }

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrClosed)
}
