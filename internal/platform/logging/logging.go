// Package logging defines the Logger interface every component in this
// engine depends on: an Info/Warn/Error/Debug family plus a structured
// WithFields, so call sites attach identifying fields (sid, idempotency
// key, tx hash) instead of interpolating them into a message string.
package logging

// Logger is the common logging interface used across the engine.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	// WithFields returns a derived Logger that prepends the given
	// key-value pairs (odd/even args: key, value, key, value, ...) to
	// every subsequent log line.
	WithFields(fields ...any) Logger

	Sync() error
}
