// Package core defines the domain data model and cross-cutting
// interfaces shared by every component of the trading engine.
package core

// ILogger is the minimal structured-logging interface every component
// depends on. Concrete implementations live in internal/logging (a
// lightweight writer-based logger, used in tests) and pkg/logging (the
// zap + OpenTelemetry production logger).
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
