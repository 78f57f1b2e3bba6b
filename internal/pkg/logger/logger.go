package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Environment string // development, production, test
	LogFile     string // optional file path for logs
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	writers := []io.Writer{os.Stdout}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Error().Err(err).Str("file", cfg.LogFile).Msg("Failed to open log file")
		} else {
			writers = append(writers, file)
		}
	}

	if cfg.Environment == "development" || cfg.Environment == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}).With().Caller().Logger()
		return
	}

	// JSON output for production for better parsing
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Caller().
		Logger()
}

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
)

// FromContext returns the logger from context or the global logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// WithContext returns a context with the logger attached
func WithContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID stores the request id and a logger tagged with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := FromContext(ctx).With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, &l)
}

// RequestID returns the request id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// LogError logs an error with key/value fields
func LogError(ctx context.Context, err error, msg string, fields ...interface{}) {
	withFields(FromContext(ctx).Error().Err(err), fields).Msg(msg)
}

// LogInfo logs an info message with key/value fields
func LogInfo(ctx context.Context, msg string, fields ...interface{}) {
	withFields(FromContext(ctx).Info(), fields).Msg(msg)
}

// LogWarn logs a warning with key/value fields
func LogWarn(ctx context.Context, msg string, fields ...interface{}) {
	withFields(FromContext(ctx).Warn(), fields).Msg(msg)
}

func withFields(event *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, fields[i+1])
	}
	return event
}
