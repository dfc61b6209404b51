// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Batch enrollment constants
const (
	// DefaultConcurrency is the default number of parallel enrollment workers
	DefaultConcurrency = 4

	// MaxReportedErrors is the number of failures listed in the batch summary
	MaxReportedErrors = 10
)

// Server constants
const (
	// ShutdownTimeout bounds the graceful shutdown of the web server
	ShutdownTimeout = 10 * time.Second

	// StatusCheckTimeout bounds each dependency probe of the status endpoint
	StatusCheckTimeout = 3 * time.Second
)
