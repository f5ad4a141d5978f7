package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across vista.
const (
	// Identity and context
	FieldClientID  = "client_id"
	FieldSessionID = "session_id"
	FieldDatasetID = "dataset_id"

	// Components
	FieldComponent = "component"
	FieldSymbol    = "symbol"

	// View state
	FieldMode      = "mode"
	FieldFromMode  = "from_mode"
	FieldToMode    = "to_mode"
	FieldStatic    = "static"
	FieldFirstTime = "first_entry"

	// Physics
	FieldAlpha     = "alpha"
	FieldThreshold = "threshold"
	FieldParam     = "param"
	FieldTick      = "tick"

	// Counts
	FieldNodeCount     = "node_count"
	FieldEdgeCount     = "edge_count"
	FieldFallbackCount = "fallback_count"
	FieldEnabledCount  = "enabled_count"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldDebounce   = "debounce"

	// Errors
	FieldError = "error"

	// Files and network
	FieldPath    = "path"
	FieldAddress = "address"
)

type contextKey string

const (
	sessionIDKey contextKey = "logger_session_id"
	componentKey contextKey = "logger_component"
)

// WithSessionID adds a session ID to the context for logging
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok && sessionID != "" {
		fields = append(fields, FieldSessionID, sessionID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns the global logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	m := view.NewMachine(sim, rend, cfg, logger.ComponentLogger("view.machine"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
