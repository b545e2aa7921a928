// Package logging wraps logrus with the rotation and global-logger
// conventions used across the tracker and its CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration.
type Config struct {
	Level      logrus.Level
	OutputFile string // path to log file (empty = stdout only)
	MaxSize    int64  // max size in bytes before rotation (default: 10MB)
	MaxBackups int    // number of old log files to keep (default: 3)
	JSONFormat bool   // JSON format (default: false for debug, true for production)
	AddSource  bool   // report caller file:line (default: true in debug)
}

// Logger wraps logrus.Logger with file rotation.
type Logger struct {
	*logrus.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Initialize creates and configures the global logger. Must be called
// before any logging operations that go through the package-level
// helpers (Debug, Info, Warn, Error, Fatal).
func Initialize(config Config) error {
	var initErr error
	once.Do(func() {
		logger, err := NewLogger(config)
		if err != nil {
			initErr = fmt.Errorf("initialize logger: %w", err)
			return
		}
		globalLogger = logger
	})
	return initErr
}

// NewLogger creates a new logger instance with the given configuration.
func NewLogger(config Config) (*Logger, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 10 * 1024 * 1024
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}

	l := &Logger{Logger: logrus.New(), config: config}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if config.OutputFile != "" {
		dir := filepath.Dir(config.OutputFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, fmt.Errorf("rotate logs: %w", err)
		}
		file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", config.OutputFile, err)
		}
		l.file = file
		writers = append(writers, file)
	}

	l.SetOutput(io.MultiWriter(writers...))
	l.SetLevel(config.Level)
	l.SetReportCaller(config.AddSource)
	if config.JSONFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l, nil
}

// rotateIfNeeded renames the current log file to a numbered backup
// once it exceeds config.MaxSize, shifting older backups up by one.
func (l *Logger) rotateIfNeeded() error {
	if l.config.OutputFile == "" {
		return nil
	}
	info, err := os.Stat(l.config.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < l.config.MaxSize {
		return nil
	}

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", l.config.OutputFile, i)
		newPath := fmt.Sprintf("%s.%d", l.config.OutputFile, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}

	backupPath := fmt.Sprintf("%s.1", l.config.OutputFile)
	if err := os.Rename(l.config.OutputFile, backupPath); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

// Fatal logs at error level, closes the log file, and exits the process.
func (l *Logger) Fatal(args ...any) {
	l.Error(args...)
	l.Close()
	os.Exit(1)
}

// With returns an entry carrying the given structured fields (key,
// value, key, value, ...).
func (l *Logger) With(args ...any) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return l.WithFields(fields)
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Debug logs a debug message using the global logger.
func Debug(args ...any) {
	if globalLogger != nil {
		globalLogger.Debug(args...)
	}
}

// Info logs an info message using the global logger.
func Info(args ...any) {
	if globalLogger != nil {
		globalLogger.Info(args...)
	}
}

// Warn logs a warning message using the global logger.
func Warn(args ...any) {
	if globalLogger != nil {
		globalLogger.Warn(args...)
	}
}

// Error logs an error message using the global logger.
func Error(args ...any) {
	if globalLogger != nil {
		globalLogger.Error(args...)
	}
}

// Fatal logs an error message and exits the program using the global logger.
func Fatal(args ...any) {
	if globalLogger != nil {
		globalLogger.Fatal(args...)
		return
	}
	os.Exit(1)
}

// With returns an entry carrying structured fields from the global logger.
func With(args ...any) *logrus.Entry {
	if globalLogger != nil {
		return globalLogger.With(args...)
	}
	return logrus.NewEntry(logrus.New())
}

// Close closes the global logger's file, if any.
func Close() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}

// DefaultConfig returns a sensible default configuration: output to
// stdout and to a rotated, timestamped file under logs/, as
// human-readable text with caller info in debug mode and JSON otherwise.
func DefaultConfig(debugMode bool) Config {
	level := logrus.InfoLevel
	if debugMode {
		level = logrus.DebugLevel
	}

	logDir := "logs"
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFile := filepath.Join(logDir, fmt.Sprintf("reqtrack_%s.log", timestamp))

	return Config{
		Level:      level,
		OutputFile: logFile,
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 3,
		JSONFormat: !debugMode,
		AddSource:  debugMode,
	}
}

// DebugConfig returns a configuration optimized for local debugging:
// stdout only, no rotation, human-readable text.
func DebugConfig() Config {
	return Config{Level: logrus.DebugLevel, JSONFormat: false, AddSource: true}
}

// ProductionConfig returns a configuration optimized for long-running
// daemons: JSON to a rotated file, no caller reporting.
func ProductionConfig(logFile string) Config {
	return Config{
		Level:      logrus.InfoLevel,
		OutputFile: logFile,
		MaxSize:    50 * 1024 * 1024,
		MaxBackups: 10,
		JSONFormat: true,
		AddSource:  false,
	}
}
