package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError wraps a panic value as an error
type PanicError struct {
	Value      interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// RecoverAsError recovers from a panic and stores it in errPtr as a
// *PanicError. It must be deferred directly.
//
// Example:
//
//	func doWork() (err error) {
//	    defer RecoverAsError(slog.Default(), &err)
//	    // ... code that might panic
//	}
func RecoverAsError(logger *slog.Logger, errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = newPanicError(logger, r)
	}
}

// RecoverWithCallback recovers from a panic and calls the callback with the
// error. It must be deferred directly. A nil callback only logs.
func RecoverWithCallback(logger *slog.Logger, callback func(error)) {
	if r := recover(); r != nil {
		err := newPanicError(logger, r)
		if callback != nil {
			callback(err)
		}
	}
}

// SafeGo runs fn in a goroutine with panic recovery. Any panic is logged and
// passed to the optional error handler.
func SafeGo(logger *slog.Logger, fn func(), onError func(error)) {
	go func() {
		defer RecoverWithCallback(logger, onError)
		fn()
	}()
}

func newPanicError(logger *slog.Logger, r interface{}) *PanicError {
	if logger == nil {
		logger = slog.Default()
	}
	stack := string(debug.Stack())
	logger.Error("Recovered from panic", "panic", r, "stack", stack)
	return &PanicError{Value: r, StackTrace: stack}
}
