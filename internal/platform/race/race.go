package race

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var ErrNoTasks = errors.New("race: no tasks")

// Task is one competitor in First.
type Task[T any] func(ctx context.Context) (T, error)

// Result identifies the winning task by its position in the argument list.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// PanicError wraps a value recovered from a task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// First runs every task and returns the first one to finish, error or not.
// The others see their context cancelled and are abandoned without being awaited.
// A task that panics finishes with a *PanicError.
func First[T any](ctx context.Context, tasks ...Task[T]) (Result[T], error) {
	if len(tasks) == 0 {
		return Result[T]{}, ErrNoTasks
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result[T], len(tasks))
	for i, task := range tasks {
		go func(index int, task Task[T]) {
			value, err := call(runCtx, task)
			results <- Result[T]{Index: index, Value: value, Err: err}
		}(i, task)
	}

	select {
	case res := <-results:
		return res, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

func call[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}

// Go starts fn on its own goroutine. A returned error or a panic is handed to
// onErr and goes no further. The returned channel closes when fn is done.
func Go(ctx context.Context, name string, fn func(ctx context.Context) error, onErr func(name string, err error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := call(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
		if err != nil && onErr != nil {
			onErr(name, err)
		}
	}()
	return done
}
