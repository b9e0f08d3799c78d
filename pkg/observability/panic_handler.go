package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with the full stack trace.
//
// Intended for detached goroutines (fire-and-forget cache writes) where an
// unrecovered panic would take down the whole process:
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "cache write")
//	    // ...
//	}()
//
// After logging, the panic is NOT re-raised.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}
