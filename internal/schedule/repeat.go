// Package schedule runs cancellable repeating work.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Task is a running repetition. Stop is safe to call any number of times
// from any goroutine, including from inside the task function.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Repeat calls fn immediately and then every interval until fn returns false,
// ctx is cancelled, or Stop is called. Calls never overlap.
func Repeat(ctx context.Context, interval time.Duration, fn func(ctx context.Context) bool) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()

		if !fn(ctx) {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				if !fn(ctx) {
					return
				}
			}
		}
	}()

	return t
}

// Stop cancels the task without waiting for an in-flight call.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
}

// Done is closed once the task has fully exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait stops the task and blocks until it has exited.
func (t *Task) Wait() {
	t.Stop()
	<-t.done
}
