package logger

import (
	"github.com/khulnasoft/DataLineup/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// These functions log with the symbol as a structured field, not in the message.
//
// Usage:
//
//	// Instead of:
//	logger.Infow(sym.Poll + " checked out message", "queue", q)
//
//	// Use:
//	logger.PollInfow("checked out message", "queue", q)
//
// This makes logs queryable by stage and keeps messages clean.

// PollInfow logs an info message tagged with the Poll symbol.
func PollInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Poll}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// ScheduleDebugw logs a debug message tagged with the Schedule symbol.
func ScheduleDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Schedule}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// ParkInfow logs an info message tagged with the Park symbol.
// Used whenever a message is parked against a resource or rate limit.
func ParkInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Park}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// ExecuteInfow logs an info message tagged with the Execute symbol.
func ExecuteInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Execute}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// ExecuteErrorw logs an error message tagged with the Execute symbol.
func ExecuteErrorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Execute}, keysAndValues...)
		Logger.Errorw(msg, fields...)
	}
}

// PublishInfow logs an info message tagged with the Publish symbol.
func PublishInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Publish}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// SyncInfow logs an info message tagged with the Sync symbol.
// Used for work-manager reconciliation with the manager.
func SyncInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Sync}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// SyncWarnw logs a warning message tagged with the Sync symbol.
func SyncWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Sync}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// OpenInfow logs an info message tagged with the Open symbol.
// Used for graceful startup and cursor/lease recovery.
func OpenInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Open}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// CloseInfow logs an info message tagged with the Close symbol.
// Used for graceful shutdown with cursor flush.
func CloseInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Close}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// CursorDebugw logs a debug message tagged with the Cursor symbol.
func CursorDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Cursor}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// ResourceDebugw logs a debug message tagged with the Resource symbol.
func ResourceDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Resource}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// WithSymbol returns a logger with the given symbol as a field.
// For ad-hoc symbol usage not covered by the helpers above.
//
// Example:
//
//	symbolLogger := logger.WithSymbol(sym.Resource)
//	symbolLogger.Infow("acquired slot", "type", t)
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// SymbolInfow logs with any symbol - for dynamic symbol usage.
func SymbolInfow(symbol, msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
