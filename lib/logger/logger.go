package logger

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var std atomic.Pointer[slog.Logger]

func init() {
	std.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// SetLogger 替换全局使用的 logger
func SetLogger(l *slog.Logger) {
	if l != nil {
		std.Store(l)
	}
}

func Logger() *slog.Logger {
	return std.Load()
}

func Debug(msg string, args ...any) {
	std.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	std.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	std.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	std.Load().Error(msg, args...)
}
