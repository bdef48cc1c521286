// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// errWaitTimeout is mapped to a more specific sentinel by callers.
var errWaitTimeout = errors.New("timed out")

// Future is a single-slot value set once from a callback goroutine and
// awaited by another. Later Resolve calls are ignored.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve stores v if nothing was stored yet and reports whether it did.
func (f *Future[T]) Resolve(v T) bool {
	set := false
	f.once.Do(func() {
		f.val = v
		set = true
		close(f.done)
	})
	return set
}

// Done is closed once a value is stored.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until a value is stored, d elapses on clk or ctx ends.
func (f *Future[T]) Wait(ctx context.Context, clk clock.Clock, d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.val, nil
	default:
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.val, nil
	case <-timer.C:
		var zero T
		return zero, errWaitTimeout
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
