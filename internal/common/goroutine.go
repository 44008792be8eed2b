// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the service.
// Use this for background work like the initial crawl or the HTTP listener,
// where a panic shouldn't take the whole process down.
//
// Example:
//
//	common.SafeGo(logger, "initial-crawl", func() {
//	    crawler.Crawl(ctx)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Get stack trace
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				// Log the panic
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing service operation")
				} else {
					// Fallback to stderr if no logger
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}

				// Don't exit - this is a non-fatal goroutine crash
				writeCrashLog(name, r, stackTrace)
			}
		}()

		fn()
	}()
}

// SafeGoWithContext runs a function in a goroutine with panic recovery and context support.
// The goroutine exits without running fn if ctx is already cancelled.
//
// Example:
//
//	common.SafeGoWithContext(ctx, logger, "crawler-loop", func() {
//	    crawler.Loop(ctx, pingInterval)
//	})
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Get stack trace
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				// Log the panic
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing service operation")
				}

				writeCrashLog(name, r, stackTrace)
			}
		}()

		// Check context before running
		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Debug().Str("goroutine", name).Msg("Goroutine cancelled before start")
			}
			return
		default:
		}

		fn()
	}()
}

// writeCrashLog is the hook for non-fatal goroutine panics. It writes
// nothing: no crash file is created, and the logger call in the recovering
// wrapper is the only record of the panic.
func writeCrashLog(goroutineName string, panicVal interface{}, stackTrace string) {
	// For non-fatal panics, we just log - don't create a crash file
	// The logger should capture this adequately
	// If we wanted persistent crash logs, we could write here
}
