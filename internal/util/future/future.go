// Package future is a small single-shot promise used to fan work out across
// goroutines and collect the results in order.
package future

import "sync"

type result[T any] struct {
	v   T
	err error
}

// Future is a single-shot result that completes exactly once.
type Future[T any] struct {
	doneChannel chan struct{}
	res         result[T]
	once        sync.Once
}

// New runs fn in a goroutine and completes the Future when fn returns.
func New[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{doneChannel: make(chan struct{})}
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// FromValue creates an already-completed Future with a value.
func FromValue[T any](v T) *Future[T] {
	f := &Future[T]{doneChannel: make(chan struct{})}
	f.complete(v, nil)
	return f
}

// FromError creates an already-completed Future with an error.
func FromError[T any](err error) *Future[T] {
	f := &Future[T]{doneChannel: make(chan struct{})}
	var zero T
	f.complete(zero, err)
	return f
}

// Await blocks until completion and returns the result.
func (f *Future[T]) Await() (T, error) {
	<-f.doneChannel
	return f.res.v, f.res.err
}

// Done returns a channel closed when the Future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.doneChannel }

// All waits for all futures and returns their values in order.
// If any future fails, it returns the first error encountered.
func All[T any](futures ...*Future[T]) *Future[[]T] {
	return New(func() ([]T, error) {
		out := make([]T, len(futures))
		for i, fut := range futures {
			v, err := fut.Await()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	})
}

// complete sets the result exactly once and closes doneChannel.
func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.res = result[T]{v: v, err: err}
		close(f.doneChannel)
	})
}
