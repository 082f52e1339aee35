// FILE: lixenwraith/settings/timing.go
package settings

import "time"

// File watching timing constants.
const (
	SpinWaitInterval     = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
	MinPollInterval      = 100 * time.Millisecond // Hard floor for file stat polling
	ShutdownTimeout      = 100 * time.Millisecond // Graceful watcher termination window
	DefaultDebounce      = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval  = time.Second            // Standard file monitoring frequency
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for reload operations
)

// Size limits for values read from external sources.
const (
	MaxValueSize       = 1 << 20  // Single environment or argument value
	DefaultMaxFileSize = 10 << 20 // Settings file
)
