package scheduler

import (
	"context"
)

// Work is a unit of cancellable work submitted to a Scheduler.
type Work[T any] func(ctx context.Context) (T, error)

// Result carries either the value produced by a Work or the error it
// failed with.
type Result[T any] struct {
	Data T
	Err  error
}
