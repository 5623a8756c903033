package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Init initializes the global logger. Call again with debug=true to
// switch to debug-level output after configuration is loaded.
func Init(debug bool) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log = l
}

// Sync flushes buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func ensure() *zap.Logger {
	if log == nil {
		Init(false)
	}
	return log
}

func Debug(msg string, fields ...zap.Field) {
	ensure().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	ensure().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	ensure().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	ensure().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	ensure().Fatal(msg, fields...)
}
