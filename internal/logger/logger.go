// Package logger provides leveled logging for the bot's schedulers and
// collaborators.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

type leveledLogger struct {
	level  Level
	logger *log.Logger
}

// Calls made before Init log at info level.
var defaultLogger = &leveledLogger{
	level:  InfoLevel,
	logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
}

// Init configures the package-level logger. Unknown levels fall back to info.
func Init(level string, format string) {
	l := InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "info":
		l = InfoLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &leveledLogger{
		level:  l,
		logger: log.New(os.Stderr, "", flags),
	}
}

func (l *leveledLogger) output(level Level, tag, format string, args ...any) {
	if l.level > level {
		return
	}
	_ = l.logger.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...any) {
	defaultLogger.output(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...any) {
	defaultLogger.output(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...any) {
	defaultLogger.output(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...any) {
	defaultLogger.output(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...any) {
	defaultLogger.output(ErrorLevel, "[FATAL] ", format, args...)
	os.Exit(1)
}
