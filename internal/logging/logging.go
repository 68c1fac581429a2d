// Package logging wraps logrus with context-aware request fields.
package logging

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// TraceIDKey carries the request trace ID through the context.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey carries the authenticated user ID through the context.
	UserIDKey contextKey = "user_id"
	// RoleKey carries the authenticated user's role through the context.
	RoleKey contextKey = "role"
)

// Logger is a named logrus logger. All service and transport code logs
// through this type so that trace/user fields are attached consistently.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the given component. Output format is controlled
// by LOG_FORMAT (json|text) and level by LOG_LEVEL.
func New(component string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	if os.Getenv("LOG_FORMAT") == "json" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	return &Logger{entry: base.WithField("component", component)}
}

// NewDefault returns a logger suitable when the caller did not provide one.
func NewDefault(component string) *Logger {
	return New(component)
}

// WithContext returns a logger annotated with the trace, user and role
// fields present in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	entry := l.entry
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	if role := GetRole(ctx); role != "" {
		entry = entry.WithField("role", role)
	}
	return &Logger{entry: entry}
}

// WithError annotates the logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// WithField annotates the logger with a single field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields annotates the logger with multiple fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// LogRequest records a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("http request")
}

// NewTraceID generates a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, if any.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// GetUserID returns the user ID stored in ctx, if any.
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

// GetRole returns the role stored in ctx, if any.
func GetRole(ctx context.Context) string {
	return stringValue(ctx, RoleKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
