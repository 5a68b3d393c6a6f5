package interfaces

import (
	"context"
	"sync"
)

// Pending is a handle to a value that becomes available later.
//
// A Pending completes exactly once. Callbacks registered with OnComplete run
// on the goroutine that completes it, or immediately on the registering
// goroutine if it has already completed. A Pending may be dropped before it
// completes; the eventual result is then discarded.
type Pending[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	callbacks []func(T, error)
}

// NewPending returns an incomplete handle.
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

// Completed returns a handle that has already completed with value and err.
func Completed[T any](value T, err error) *Pending[T] {
	p := NewPending[T]()
	p.Complete(value, err)
	return p
}

// Complete stores the result and wakes waiters. Only the first call has any
// effect; it returns false if the handle was already completed.
func (p *Pending[T]) Complete(value T, err error) bool {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		return false
	default:
	}
	p.value, p.err = value, err
	close(p.done)
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
	return true
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Poll returns the result without blocking. ok is false while the handle is
// still pending.
func (p *Pending[T]) Poll() (value T, ok bool, err error) {
	select {
	case <-p.done:
		return p.value, true, p.err
	default:
		return value, false, nil
	}
}

// Wait blocks until the result is available or ctx is done. Abandoning the
// wait does not cancel the underlying call.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}

	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers cb to run with the result.
func (p *Pending[T]) OnComplete(cb func(T, error)) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		cb(p.value, p.err)
		return
	default:
	}
	p.callbacks = append(p.callbacks, cb)
	p.mu.Unlock()
}

// Then returns a handle completed with f applied to p's value. f runs only
// after p completes successfully; an error from p is passed through as is.
func Then[T, U any](p *Pending[T], f func(T) (U, error)) *Pending[U] {
	next := NewPending[U]()
	p.OnComplete(func(value T, err error) {
		if err != nil {
			var zero U
			next.Complete(zero, err)
			return
		}
		next.Complete(f(value))
	})
	return next
}
