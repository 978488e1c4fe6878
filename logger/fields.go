package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across plugctl.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"
	FieldPlugin    = "plugin"
	FieldProvider  = "provider"
	FieldNamespace = "namespace"

	// Operations
	FieldOperation = "operation"
	FieldSource    = "source"
	FieldCommand   = "command"

	// Files and paths
	FieldPath      = "path"
	FieldFile      = "file"
	FieldDirectory = "directory"
	FieldTarget    = "target"

	// Errors
	FieldError = "error"

	// Counts and state
	FieldCount    = "count"
	FieldEnabled  = "enabled"
	FieldDuration = "duration_ms"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	reg := registry.New(root, registry.WithLogger(logger.ComponentLogger("registry")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
