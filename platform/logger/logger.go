// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// BatchIDKey is the context key for the import batch ID
	BatchIDKey contextKey = "batch_id"
	// SupplierCodeKey is the context key for the supplier code
	SupplierCodeKey contextKey = "supplier_code"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports batch_id and supplier_code from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if batchID, ok := ctx.Value(BatchIDKey).(string); ok && batchID != "" {
		newLogger = newLogger.WithBatchID(batchID)
	}

	if code, ok := ctx.Value(SupplierCodeKey).(string); ok && code != "" {
		newLogger = newLogger.WithSupplier(code)
	}

	return newLogger
}

// WithBatchID returns a logger with the import batch ID attached.
func (l *Logger) WithBatchID(batchID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("batch_id", batchID)),
	}
}

// WithSupplier returns a logger with the supplier code attached.
func (l *Logger) WithSupplier(code string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("supplier_code", code)),
	}
}

// ImportEvent logs one import run summary.
func (l *Logger) ImportEvent(supplierCode string, totalRows, newProducts, updated, skipped int, status string) {
	l.Info("import_event",
		slog.String("supplier_code", supplierCode),
		slog.Int("total_rows", totalRows),
		slog.Int("new_products", newProducts),
		slog.Int("updated_products", updated),
		slog.Int("skipped_rows", skipped),
		slog.String("status", status),
	)
}

// SupplierError logs a supplier-facing failure (FTP, API, auth).
func (l *Logger) SupplierError(supplierCode, operation string, err error) {
	l.Error("supplier_error",
		slog.String("supplier_code", supplierCode),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitWait logs a pre-emptive sleep forced by an exhausted rate limit window.
func (l *Logger) RateLimitWait(supplierCode string, waitMs int64) {
	l.Warn("rate_limit_wait",
		slog.String("supplier_code", supplierCode),
		slog.Int64("wait_ms", waitMs),
	)
}

// RetryAttempt logs a retried operation with its backoff.
func (l *Logger) RetryAttempt(operation string, attempt int, backoffMs int64, err error) {
	l.Warn("retry_attempt",
		slog.String("operation", operation),
		slog.Int("attempt", attempt),
		slog.Int64("backoff_ms", backoffMs),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
