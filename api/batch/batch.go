/* batch.go
 * Bounded fan-out over a list of work items. Items are split into consecutive chunks of `concurrency`
 * items; every task in a chunk runs concurrently and the next chunk only starts once the whole chunk
 * has settled. A task that fails or panics never affects its siblings or later chunks.
 */

package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Run is given a non-positive concurrency
const DefaultConcurrency = 30

// Status of a settled task
type Status string

const (
	Fulfilled Status = "fulfilled"
	Rejected  Status = "rejected"
)

// Settlement captures the outcome of one task independently of every other task
type Settlement[R any] struct {
	Status Status
	Value  R
	Reason error
}

// Fulfilled reports whether the task completed without error
func (s Settlement[R]) Fulfilled() bool {
	return s.Status == Fulfilled
}

// Task is the unit of work run for every item
type Task[T, R any] func(ctx context.Context, item T) (R, error)

// Run executes task for every item and returns one settlement per item, in input order.
// Preconditions: Receives a context, the items, a task and the chunk size
// Postconditions: Every item has been attempted exactly once; at most `concurrency` tasks ran at any time
func Run[T, R any](ctx context.Context, items []T, concurrency int, task Task[T, R]) []Settlement[R] {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]Settlement[R], len(items))

	for start := 0; start < len(items); start += concurrency {
		end := min(start+concurrency, len(items))

		// The group never sees an error: outcomes are recorded per slot so one rejection
		// does not stop its siblings from being waited on.
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = settle(ctx, items[i], task)
				return nil
			})
		}
		_ = g.Wait()
	}

	return results
}

func settle[T, R any](ctx context.Context, item T, task Task[T, R]) (s Settlement[R]) {
	defer func() {
		if r := recover(); r != nil {
			s = Settlement[R]{Status: Rejected, Reason: fmt.Errorf("task panicked: %v", r)}
		}
	}()

	value, err := task(ctx, item)
	if err != nil {
		return Settlement[R]{Status: Rejected, Value: value, Reason: err}
	}
	return Settlement[R]{Status: Fulfilled, Value: value}
}

// Counts returns the number of fulfilled and rejected settlements
func Counts[R any](settlements []Settlement[R]) (fulfilled int, rejected int) {
	for _, s := range settlements {
		if s.Fulfilled() {
			fulfilled++
		} else {
			rejected++
		}
	}
	return fulfilled, rejected
}
