// Package observability provides logging, metrics, and tracing.
package observability

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// StoreLogger provides structured logging for document store operations.
type StoreLogger struct {
	collection string
	logger     *Logger
}

// NewStoreLogger creates a new StoreLogger for the given collection.
func NewStoreLogger(collection string) *StoreLogger {
	return &StoreLogger{collection: collection, logger: GlobalLogger}
}

// LogWrite logs a store write operation.
func (l *StoreLogger) LogWrite(operation, docID string) {
	l.logger.Info("store write",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("doc_id", docID),
	)
}

// LogSnapshot logs a snapshot delivery to a subscriber.
func (l *StoreLogger) LogSnapshot(docs int) {
	l.logger.Info("snapshot delivered",
		slog.String("collection", l.collection),
		slog.Int("docs", docs),
	)
}

// LogError logs a store error.
func (l *StoreLogger) LogError(err error, operation string) {
	l.logger.Error("store error",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
	logger  *Logger
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName, logger: GlobalLogger}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(uid string) {
	l.logger.Info("websocket connected",
		slog.String("hub", l.hubName),
		slog.String("uid", uid),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(uid string, reason string) {
	l.logger.Info("websocket disconnected",
		slog.String("hub", l.hubName),
		slog.String("uid", uid),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(uid string, err error) {
	l.logger.Error("websocket error",
		slog.String("hub", l.hubName),
		slog.String("uid", uid),
		slog.String("error", err.Error()),
	)
}
