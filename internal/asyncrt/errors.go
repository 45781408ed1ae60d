package asyncrt

import (
	"errors"
	"fmt"
)

var (
	// ErrHandleConsumed is reported when a JoinHandle is polled after it already
	// yielded its value.
	ErrHandleConsumed = errors.New("asyncrt: join handle already consumed")

	// ErrRuntimeClosed is reported by futures whose runtime has been closed or
	// garbage collected, and by handles of tasks dropped by Close.
	ErrRuntimeClosed = errors.New("asyncrt: runtime closed")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Task  TaskID
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("asyncrt: task %s panicked: %v", e.Task, e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
