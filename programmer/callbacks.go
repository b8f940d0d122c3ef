package programmer

import "time"

// Operation phases reported through the progress callback.
const (
	// PhaseErasing - chip erase command in flight
	PhaseErasing = "erasing"

	// PhaseWriting - paged writes in progress
	PhaseWriting = "writing"

	// PhaseReading - ranged read in progress
	PhaseReading = "reading"

	// PhaseVerifying - readback comparison after a write
	PhaseVerifying = "verifying"

	// PhaseComplete - operation finished successfully
	PhaseComplete = "complete"
)

// Progress is a snapshot of an operation, pushed to the progress callback.
// It is ephemeral; the engine never stores one.
type Progress struct {
	// Phase is the current operation phase (see Phase constants)
	Phase string

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesDone is the number of bytes transferred so far in this phase
	BytesDone uint32

	// TotalBytes is the number of bytes this phase will transfer
	TotalBytes uint32

	// Elapsed is the time since the operation started
	Elapsed time.Duration
}

// ProgressCallback is called during transfers to report progress.
// Implementations should return quickly; the serial round-trips block on
// the same goroutine.
type ProgressCallback func(Progress)

// Logger is an optional logging interface, allowing integration with any
// logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
