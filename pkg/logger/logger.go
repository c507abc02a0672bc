// Package logger provides component-scoped structured logging for the bot.
// Every call names the component it originates from ("telegram", "session",
// "classifier", ...) so log lines stay greppable per subsystem.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	sugar = zap.Must(zap.NewProduction()).Sugar()
)

// Init replaces the default production logger. With debug enabled the
// development encoder is used (human-readable, DEBUG level).
func Init(debug bool) {
	var l *zap.Logger
	if debug {
		l = zap.Must(zap.NewDevelopment())
	} else {
		l = zap.Must(zap.NewProduction())
	}
	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync()
}

func kvs(component string, fields map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, 2*len(fields)+2)
	out = append(out, "component", component)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// InfoC logs an info message for a component.
func InfoC(component, msg string) {
	get().Infow(msg, "component", component)
}

// InfoCF logs an info message with structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	get().Infow(msg, kvs(component, fields)...)
}

// WarnC logs a warning for a component.
func WarnC(component, msg string) {
	get().Warnw(msg, "component", component)
}

// WarnCF logs a warning with structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	get().Warnw(msg, kvs(component, fields)...)
}

// ErrorC logs an error for a component.
func ErrorC(component, msg string) {
	get().Errorw(msg, "component", component)
}

// ErrorCF logs an error with structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	get().Errorw(msg, kvs(component, fields)...)
}

// DebugCF logs a debug message with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	get().Debugw(msg, kvs(component, fields)...)
}
