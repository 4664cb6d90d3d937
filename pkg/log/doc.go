/*
Package log provides structured logging for Holdfast using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common patterns. All logs include timestamps and support
filtering by severity.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Thread-safe concurrent writes

Log Levels:
  - Debug: stale-update discards, per-tick evaluation detail
  - Info: transitions, demotions, startup/shutdown
  - Warn: override arming, override expiry without convergence
  - Error: storage or front-door failures
  - Fatal: unrecoverable startup errors (process exits)

Context Loggers:
  - WithComponent: add component name to all logs
  - WithNodeID: add the local node's ID
  - WithPeerID: add a peer's ID

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Structured logging:

	logger := log.WithComponent("reconciler")
	logger.Warn().
		Str("justification", "dev-mode").
		Dur("ttl", 60*time.Second).
		Msg("readiness override armed")

# Integration Points

  - pkg/membership: debug logs for discarded stale updates
  - pkg/override: mandatory warning on every arm
  - pkg/reconciler: one structured event per state transition
  - pkg/api: request-path errors

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
