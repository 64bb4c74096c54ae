// Package timeouts centralizes the timing constants shared between the
// daemon, the SDK and the CLI, so the ping/startup/oracle budgets stay in
// one place.
package timeouts

import "time"

const (
	// Probe bounds a single liveness ping against the daemon.
	Probe = 800 * time.Millisecond

	// StartupBackoff is the base backoff while waiting for a freshly
	// spawned daemon to answer; StartupAttempts caps the wait.
	StartupBackoff  = 500 * time.Millisecond
	StartupAttempts = 6

	// OracleCall covers a full run of a long plan from the CLI side; each
	// individual step is bounded server-side by the configured step
	// timeout.
	OracleCall = 15 * time.Minute

	// ShutdownGrace is how long in-flight requests get to drain.
	ShutdownGrace = 2 * time.Second
)
