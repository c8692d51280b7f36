// Package logging provides the structured logging system shared by pullconfd
// and pullconf, built on Go's standard slog package.
//
// # Log Levels
//   - **Debug**: detailed information for troubleshooting a run
//   - **Info**: general messages about normal operation
//   - **Warn**: conditions that deserve attention but do not stop the program
//   - **Error**: failures, always accompanied by the underlying error
//
// # Structured Output
//
// Records are encoded either as logfmt key=value lines or as single-line
// JSON objects, selected at initialization (usually from PULLCONF_LOG_FORMAT).
// Every record carries constant application, version and pid attributes plus
// a per-call scope attribute so that entries from both programs can be
// filtered in a shared journal.
//
// # Usage
//
//	logging.Init("pullconfd", version, logging.FormatLogfmt, logging.LevelInfo, os.Stderr)
//
//	logging.Info("configuration", "reading resources from %s", dir)
//	logging.Error("http", err, "failed to serve request")
//
// # Scope Organization
//
// Scopes categorize records by concern rather than by package:
//
//   - **configuration**: environment and declaration loading
//   - **validation**: catalog compilation and dependency checks
//   - **http**: request handling on the server
//   - **client**: catalog fetching on the agent
//   - **apply**: resource convergence on the agent
//
// The package is safe for concurrent use from multiple goroutines.
package logging
