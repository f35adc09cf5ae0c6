package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar  *zap.SugaredLogger
	fields []any
}

// NewZap builds a production or development zap-backed Logger depending on
// envName ("production" gets JSON output; anything else gets the
// human-readable console encoder).
func NewZap(envName, logLevel string) (Logger, error) {
	var cfg zap.Config

	if envName == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if logLevel != "" {
		var lvl zapcore.Level
		if err := lvl.Set(logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q, falling back to info\n", logLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	cfg.DisableStacktrace = true

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &zapLogger{sugar: logger.Sugar()}, nil
}

func (l *zapLogger) Info(args ...any)  { l.sugar.With(l.fields...).Info(args...) }
func (l *zapLogger) Warn(args ...any)  { l.sugar.With(l.fields...).Warn(args...) }
func (l *zapLogger) Error(args ...any) { l.sugar.With(l.fields...).Error(args...) }
func (l *zapLogger) Debug(args ...any) { l.sugar.With(l.fields...).Debug(args...) }
func (l *zapLogger) Fatal(args ...any) { l.sugar.With(l.fields...).Fatal(args...) }

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.With(l.fields...).Infof(format, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.sugar.With(l.fields...).Warnf(format, args...)
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.sugar.With(l.fields...).Errorf(format, args...)
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.With(l.fields...).Debugf(format, args...)
}

func (l *zapLogger) Fatalf(format string, args ...any) {
	l.sugar.With(l.fields...).Fatalf(format, args...)
}

//nolint:ireturn
func (l *zapLogger) WithFields(fields ...any) Logger {
	return &zapLogger{sugar: l.sugar, fields: append(append([]any{}, l.fields...), fields...)}
}

func (l *zapLogger) Sync() error { return l.sugar.Sync() }
