package monitoring

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type Logger interface {
	Log(ctx context.Context, level LogLevel, eventType string, message string, details map[string]interface{})
}

type logger struct {
	component string
	zl        *zap.Logger
}

// NewLogger returns a Logger that tags every entry with component. A nil
// zl discards everything.
func NewLogger(component string, zl *zap.Logger) Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &logger{
		component: component,
		zl:        zl.With(zap.String("component", component)),
	}
}

func (l *logger) Log(ctx context.Context, level LogLevel, eventType string, message string, details map[string]interface{}) {
	ce := l.zl.Check(level.zapLevel(), message)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, len(details)+1)
	fields = append(fields, zap.String("event_type", eventType))
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}
	ce.Write(fields...)
}

// NopLogger discards every entry.
func NopLogger() Logger {
	return NewLogger("", zap.NewNop())
}
