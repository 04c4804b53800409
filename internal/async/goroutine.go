// Package async provides panic-guarded goroutine helpers for fan-out work.
package async

import "runtime/debug"

// ErrorLogger captures panic reports from background goroutines.
type ErrorLogger interface {
	Error(msg string, args ...any)
}

// Go runs fn in its own goroutine guarded by panic recovery, so one
// misbehaving upload can never take down its siblings or the process.
func Go(logger ErrorLogger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover logs panic details without crashing the process.
func Recover(logger ErrorLogger, name string) {
	r := recover()
	if r == nil || logger == nil {
		return
	}
	logger.Error("goroutine panic", "name", name, "panic", r, "stack", string(debug.Stack()))
}
