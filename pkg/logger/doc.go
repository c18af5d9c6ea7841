// Package logger provides the structured logging interface used across botcheck.
//
// It wraps zerolog behind the Logger interface with support for:
//   - leveled messages (Debug, Info, Warn, Error)
//   - structured fields via WithField, WithFields and WithError
//   - colored console output on stderr, optionally teed to a file
//   - a process-wide logger set up by Initialize
//
// Adapters route third-party logs through the same Logger: GormLogger for
// the follower store and RestyLogger for the HTTP clients.
//
// Tests use NewTestLogger to capture and assert on messages, or NewNopLogger
// to discard them.
package logger
