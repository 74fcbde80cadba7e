package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output types
const (
	OutputConsole = "console"
	OutputFile    = "file"
)

const defaultLogFile = "redb-cql.log"

// Config selects the log level and destination.
type Config struct {
	Level      string `yaml:"level"`
	OutputType string `yaml:"output_type"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxAge     int    `yaml:"max_age"`     // days
	MaxBackups int    `yaml:"max_backups"` // files
	Compress   bool   `yaml:"compress"`
}

// LogEntry represents a single log entry
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Logger provides leveled logging with streaming support
type Logger struct {
	serviceName string
	version     string

	zl    *zap.Logger
	level zap.AtomicLevel

	mu          sync.RWMutex
	subscribers []chan LogEntry
}

// New creates a console logger at info level writing to stderr.
func New(serviceName, version string) *Logger {
	l, err := NewWithConfig(serviceName, version, Config{})
	if err != nil {
		// console setup only fails on a broken encoder config
		panic(err)
	}
	return l
}

// NewWithConfig creates a logger from cfg. File output rotates through lumberjack.
func NewWithConfig(serviceName, version string, cfg Config) (*Logger, error) {
	level := ParseLevel(cfg.Level)

	var core zapcore.Core
	switch strings.ToLower(cfg.OutputType) {
	case "", OutputConsole:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if isTerminal() {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)
	case OutputFile:
		rotationalLogger := &lumberjack.Logger{
			Filename:   defaultIfEmpty(cfg.Filename, defaultLogFile),
			MaxSize:    defaultIfZero(cfg.MaxSize, 10),
			MaxAge:     defaultIfZero(cfg.MaxAge, 7),
			MaxBackups: defaultIfZero(cfg.MaxBackups, 5),
			Compress:   cfg.Compress,
		}
		core = zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotationalLogger),
			level,
		)
	default:
		return nil, fmt.Errorf("unknown log output type %q", cfg.OutputType)
	}

	return newLogger(serviceName, version, core, level), nil
}

// NewNop returns a logger that discards everything except subscriptions.
func NewNop() *Logger {
	return newLogger("nop", "", zapcore.NewNopCore(), zap.NewAtomicLevelAt(zap.DebugLevel))
}

func newLogger(serviceName, version string, core zapcore.Core, level zap.AtomicLevel) *Logger {
	zl := zap.New(core).With(zap.String("service", serviceName))
	if version != "" {
		zl = zl.With(zap.String("version", version))
	}
	return &Logger{
		serviceName: serviceName,
		version:     version,
		zl:          zl,
		level:       level,
		subscribers: make([]chan LogEntry, 0),
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a zap level, defaulting to info.
func ParseLevel(level string) zap.AtomicLevel {
	atomic := zap.NewAtomicLevel()
	switch strings.ToLower(level) {
	case "debug":
		atomic.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		atomic.SetLevel(zap.WarnLevel)
	case "error":
		atomic.SetLevel(zap.ErrorLevel)
	default:
		atomic.SetLevel(zap.InfoLevel)
	}
	return atomic
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level string) {
	l.level.SetLevel(ParseLevel(level).Level())
}

// Zap exposes the underlying zap logger, e.g. for driver integrations.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Subscribe returns a channel to receive log entries
func (l *Logger) Subscribe() <-chan LogEntry {
	ch := make(chan LogEntry, 100)

	l.mu.Lock()
	l.subscribers = append(l.subscribers, ch)
	l.mu.Unlock()

	return ch
}

func (l *Logger) log(level zapcore.Level, message string, fields map[string]string) {
	if ce := l.zl.Check(level, message); ce != nil {
		ce.Write(zapFields(fields)...)
	}

	entry := LogEntry{
		Time:    time.Now(),
		Level:   level.CapitalString(),
		Message: message,
		Fields:  fields,
	}

	l.mu.RLock()
	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// Skip if channel is full
		}
	}
	l.mu.RUnlock()
}

func zapFields(fields map[string]string) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, len(keys))
	for i, k := range keys {
		out[i] = zap.String(k, fields[k])
	}
	return out
}

func format(message string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// Debug logs a debug message with optional formatting
func (l *Logger) Debug(message string, args ...interface{}) {
	l.log(zap.DebugLevel, format(message, args), nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(zap.DebugLevel, fmt.Sprintf(format, args...), nil)
}

// Info logs an info message with optional formatting
func (l *Logger) Info(message string, args ...interface{}) {
	l.log(zap.InfoLevel, format(message, args), nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(zap.InfoLevel, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message with optional formatting
func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(zap.WarnLevel, format(message, args), nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(zap.WarnLevel, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message with optional formatting
func (l *Logger) Error(message string, args ...interface{}) {
	l.log(zap.ErrorLevel, format(message, args), nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(zap.ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string) {
	l.log(zap.ErrorLevel, message, nil)
	_ = l.Sync()
	os.Exit(1)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.Fatal(fmt.Sprintf(format, args...))
}

// WithFields logs a message with additional fields
func (l *Logger) WithFields(fields map[string]string) *LogContext {
	return &LogContext{
		logger: l,
		fields: fields,
	}
}

// LogContext provides field-based logging
type LogContext struct {
	logger *Logger
	fields map[string]string
}

func (c *LogContext) Debug(message string) {
	c.logger.log(zap.DebugLevel, message, c.fields)
}

func (c *LogContext) Info(message string) {
	c.logger.log(zap.InfoLevel, message, c.fields)
}

func (c *LogContext) Warn(message string) {
	c.logger.log(zap.WarnLevel, message, c.fields)
}

func (c *LogContext) Error(message string) {
	c.logger.log(zap.ErrorLevel, message, c.fields)
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultIfZero(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
