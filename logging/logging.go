// Package logging provides real-time console output for query handling.
// Each line carries the level, a UTC timestamp, the emitting component and
// key=value fields; the request ID travels as the trace ID.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vinayprograms/toolrouter/errors"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel maps a config string such as "debug" to a Level.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides structured logging to stdout.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
}

var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := New()
	l.output = io.Discard
	return l
}

// WithComponent returns a new logger with the given component name.
// The derived logger shares the parent's writer lock.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		traceID:   l.traceID,
	}
}

// WithTraceID returns a new logger with the given trace ID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		traceID:   traceID,
	}
}

// TraceID returns the trace ID attached to this logger.
func (l *Logger) TraceID() string {
	return l.traceID
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields renders fields as key=value pairs in key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	merged := make(map[string]interface{})
	if len(fields) > 0 {
		for k, v := range fields[0] {
			merged[k] = v
		}
	}
	if l.traceID != "" {
		merged["trace"] = l.traceID
	}
	fieldStr := formatFields(merged)

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Query lifecycle events ---

// QueryStart logs receipt of a query.
func (l *Logger) QueryStart(query string) {
	l.Info("query_start", map[string]interface{}{
		"query": query,
	})
}

// StrategyChosen logs the classifier's decision and the per-set scores.
func (l *Logger) StrategyChosen(strategy string, news, web, local int) {
	l.Debug("strategy", map[string]interface{}{
		"strategy": strategy,
		"news":     news,
		"web":      web,
		"local":    local,
	})
}

// Retrieved logs how many catalog records matched and the best one.
func (l *Logger) Retrieved(count int, top string, topScore int) {
	fields := map[string]interface{}{
		"matches": count,
	}
	if top != "" {
		fields["top"] = top
		fields["score"] = topScore
	}
	l.Debug("retrieved", fields)
}

// CacheHit logs a lookup served from the cache.
func (l *Logger) CacheHit(kind, query string) {
	l.Debug("cache_hit", map[string]interface{}{
		"kind":  kind,
		"query": query,
	})
}

// LookupDone logs the outcome of an external lookup.
func (l *Logger) LookupDone(kind string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"kind":     kind,
		"duration": duration.String(),
	}
	if err != nil {
		addError(fields, err)
		l.Warn("lookup_failed", fields)
		return
	}
	l.Debug("lookup_done", fields)
}

// ComposeFallback logs that a templated answer replaced the generated one.
func (l *Logger) ComposeFallback(kind string, err error) {
	fields := map[string]interface{}{
		"fallback": kind,
	}
	if err != nil {
		addError(fields, err)
	}
	l.Warn("compose_fallback", fields)
}

// addError copies err into fields, expanding coded errors into their
// code and metadata. Existing fields win.
func addError(fields map[string]interface{}, err error) {
	extra := map[string]interface{}{"error": err.Error()}
	if coded := errors.AsCoded(err); coded != nil {
		extra = coded.LogFields()
	}
	for k, v := range extra {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}
}

// QueryComplete logs the end of query handling.
func (l *Logger) QueryComplete(strategy string, matches int, duration time.Duration) {
	l.Info("query_complete", map[string]interface{}{
		"strategy": strategy,
		"matches":  matches,
		"duration": duration.String(),
	})
}
