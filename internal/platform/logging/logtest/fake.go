// Package logtest provides a no-op Logger for tests, avoiding real zap
// output in test runs.
package logtest

import "github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"

// Logger discards everything it is given.
type Logger struct{}

// New builds a discarding Logger.
func New() logging.Logger { return Logger{} }

func (Logger) Info(args ...any)                   {}
func (Logger) Infof(format string, args ...any)   {}
func (Logger) Warn(args ...any)                   {}
func (Logger) Warnf(format string, args ...any)   {}
func (Logger) Error(args ...any)                  {}
func (Logger) Errorf(format string, args ...any)  {}
func (Logger) Debug(args ...any)                  {}
func (Logger) Debugf(format string, args ...any)  {}
func (Logger) Fatal(args ...any)                  {}
func (Logger) Fatalf(format string, args ...any)  {}
func (l Logger) WithFields(fields ...any) logging.Logger { return l }
func (Logger) Sync() error                        { return nil }
