package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a log level from string, defaulting to info.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger is a structured JSON logger. Loggers are immutable: WithField
// and friends return derived loggers, so one can be shared freely.
type Logger struct {
	level   LogLevel
	output  io.Writer
	service string
	fields  map[string]interface{}
}

// LogEntry is one serialized log line.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Service   string                 `json:"service,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TenantID  string                 `json:"tenant_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// New creates a logger writing JSON lines to output.
func New(service string, level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:   level,
		output:  output,
		service: service,
		fields:  map[string]interface{}{},
	}
}

// NewDefault creates an info-level logger writing to stdout.
func NewDefault(service string) *Logger {
	return New(service, InfoLevel, os.Stdout)
}

// WithField returns a derived logger with one additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		level:   l.level,
		output:  l.output,
		service: l.service,
		fields:  merged,
	}
}

type contextKey string

// Context keys under which request-scoped identifiers travel.
const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyTenantID  contextKey = "tenant_id"
	ContextKeyUserID    contextKey = "user_id"
)

// WithContext returns a derived logger carrying the request-scoped
// identifiers found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := make(map[string]interface{})
	for _, key := range []contextKey{ContextKeyRequestID, ContextKeyTenantID, ContextKeyUserID} {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			fields[string(key)] = value
		}
	}
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, args ...interface{}) {
	l.log(DebugLevel, message, args...)
}

// Info logs an info message.
func (l *Logger) Info(message string, args ...interface{}) {
	l.log(InfoLevel, message, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(WarnLevel, message, args...)
}

// Error logs an error message.
func (l *Logger) Error(message string, args ...interface{}) {
	l.log(ErrorLevel, message, args...)
}

func (l *Logger) log(level LogLevel, message string, args ...interface{}) {
	if level < l.level {
		return
	}

	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   message,
		Service:   l.service,
	}

	for key, value := range l.fields {
		switch key {
		case string(ContextKeyRequestID):
			if s, ok := value.(string); ok {
				entry.RequestID = s
				continue
			}
		case string(ContextKeyTenantID):
			if s, ok := value.(string); ok {
				entry.TenantID = s
				continue
			}
		case string(ContextKeyUserID):
			if s, ok := value.(string); ok {
				entry.UserID = s
				continue
			}
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]interface{})
		}
		entry.Fields[key] = value
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, `{"level":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	l.output.Write(append(data, '\n'))
}
