package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts string to Level
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Fields represents additional structured fields for logging
type Fields map[string]interface{}

// Logger provides leveled structured logging
type Logger struct {
	level         Level
	output        io.Writer
	formatJSON    bool
	enableTracing bool
	mu            sync.Mutex
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	JobID     string                 `json:"job_id,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Component string                 `json:"component,omitempty"`
	Event     string                 `json:"event,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Duration  int64                  `json:"duration,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// ErrorInfo contains detailed error information
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// New creates a logger writing to "stdout", "stderr" or a file path
func New(level string, format string, output string, enableTracing bool) (*Logger, error) {
	var out io.Writer
	switch output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}

	l := NewWithWriter(out, level, format)
	l.enableTracing = enableTracing
	return l, nil
}

// NewWithWriter creates a logger on an arbitrary writer
func NewWithWriter(w io.Writer, level string, format string) *Logger {
	return &Logger{
		level:      ParseLevel(level),
		output:     w,
		formatJSON: format == "json",
	}
}

// Discard returns a logger that drops every entry
func Discard() *Logger {
	return &Logger{level: FatalLevel + 1, output: io.Discard}
}

// WithContext creates a new logger with context values
func (l *Logger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: l,
		ctx:    ctx,
	}
}

func (l *Logger) enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) emit(entry LogEntry, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.formatJSON {
		data, _ := json.Marshal(entry)
		fmt.Fprintln(l.output, string(data))
	} else {
		fmt.Fprintln(l.output, text)
	}
}

func (l *Logger) caller(skip int) string {
	if !l.enableTracing {
		return ""
	}
	if _, file, line, ok := runtime.Caller(skip); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

// log writes a log entry
func (l *Logger) log(level Level, msg string, fields Fields) {
	if !l.enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    fields,
		Caller:    l.caller(3),
	}

	l.emit(entry, fmt.Sprintf("[%s] %s %s%s", entry.Timestamp, entry.Level, entry.Message, formatFields(fields)))
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(InfoLevel, msg, mergeFields(fields...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(WarnLevel, msg, mergeFields(fields...))
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Fields) {
	l.log(ErrorLevel, msg, mergeFields(fields...))
}

// ContextLogger wraps Logger with job and target information. The With
// methods return copies, so a base ContextLogger can be shared.
type ContextLogger struct {
	logger    *Logger
	ctx       context.Context
	jobID     string
	target    string
	component string
}

// WithJobID adds job ID to the context logger
func (cl *ContextLogger) WithJobID(jobID string) *ContextLogger {
	c := *cl
	c.jobID = jobID
	return &c
}

// WithTarget adds the target file to the context logger
func (cl *ContextLogger) WithTarget(target string) *ContextLogger {
	c := *cl
	c.target = target
	return &c
}

// WithComponent adds component name to the context logger
func (cl *ContextLogger) WithComponent(component string) *ContextLogger {
	c := *cl
	c.component = component
	return &c
}

// log writes a contextualized log entry
func (cl *ContextLogger) log(level Level, event string, msg string, fields Fields, duration int64, err *ErrorInfo) {
	if !cl.logger.enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		JobID:     cl.jobID,
		Target:    cl.target,
		Component: cl.component,
		Event:     event,
		Message:   msg,
		Fields:    fields,
		Duration:  duration,
		Error:     err,
		Caller:    cl.logger.caller(3),
	}

	text := fmt.Sprintf("[%s] %s [%s] %s", entry.Timestamp, entry.Level, event, entry.Message)
	if cl.jobID != "" {
		text += " jobID=" + cl.jobID
	}
	if cl.target != "" {
		text += " target=" + cl.target
	}
	if err != nil {
		text += fmt.Sprintf(" error=%q", err.Message)
	}
	cl.logger.emit(entry, text+formatFields(fields))
}

// LogJobStarted logs the start of a job
func (cl *ContextLogger) LogJobStarted(msg string, fields Fields) {
	cl.log(InfoLevel, "JobStarted", msg, fields, 0, nil)
}

// LogJobCompleted logs job completion
func (cl *ContextLogger) LogJobCompleted(msg string, duration int64, fields Fields) {
	cl.log(InfoLevel, "JobCompleted", msg, fields, duration, nil)
}

// LogTargetWritten logs a target whose records were all written
func (cl *ContextLogger) LogTargetWritten(msg string, duration int64, fields Fields) {
	cl.log(InfoLevel, "TargetWritten", msg, fields, duration, nil)
}

// LogTargetFailed logs a target failure
func (cl *ContextLogger) LogTargetFailed(msg string, errorCode string, errorMsg string, fields Fields) {
	cl.log(ErrorLevel, "TargetFailed", msg, fields, 0, &ErrorInfo{
		Code:    errorCode,
		Message: errorMsg,
	})
}

// LogBatchWritten logs one WriteRecords batch
func (cl *ContextLogger) LogBatchWritten(msg string, duration int64, fields Fields) {
	cl.log(DebugLevel, "BatchWritten", msg, fields, duration, nil)
}

// LogFileCreated logs file creation
func (cl *ContextLogger) LogFileCreated(msg string, fields Fields) {
	cl.log(DebugLevel, "FileCreated", msg, fields, 0, nil)
}

// LogError logs a generic error
func (cl *ContextLogger) LogError(event string, msg string, errorCode string, errorMsg string, fields Fields) {
	cl.log(ErrorLevel, event, msg, fields, 0, &ErrorInfo{
		Code:    errorCode,
		Message: errorMsg,
	})
}

// LogInfo logs a generic info message
func (cl *ContextLogger) LogInfo(event string, msg string, fields Fields) {
	cl.log(InfoLevel, event, msg, fields, 0, nil)
}

// LogDebug logs a generic debug message
func (cl *ContextLogger) LogDebug(event string, msg string, fields Fields) {
	cl.log(DebugLevel, event, msg, fields, 0, nil)
}

// LogWarn logs a generic warning message
func (cl *ContextLogger) LogWarn(event string, msg string, fields Fields) {
	cl.log(WarnLevel, event, msg, fields, 0, nil)
}

// formatFields renders fields as sorted key=value pairs for text output
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// mergeFields merges multiple Fields into one
func mergeFields(fields ...Fields) Fields {
	result := Fields{}
	for _, f := range fields {
		for k, v := range f {
			result[k] = v
		}
	}
	return result
}
