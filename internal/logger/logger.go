// Package logger builds the zap loggers used by the API server and CLI.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names shared by handlers and services.
const (
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldActorID    = "actor_id"
	FieldTaskID     = "task_id"
	FieldEmployeeID = "employee_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
)

// New returns a logger at the given level ("debug", "info", "warn", "error").
// JSON output is meant for production; console output is colourless and
// human-readable.
func New(levelStr string, json bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encoding := "console"
	if json {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "msg",
			LevelKey:     "level",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.RFC3339TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}
