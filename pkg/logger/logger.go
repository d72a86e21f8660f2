package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

const separatorWidth = 24

type Config struct {
	Service string
	File    string // empty disables the file sink
	Console bool
	Debug   bool
}

// Logger is shared by every trader goroutine. The separator state and the
// write itself happen under one lock so lines from different symbols never
// interleave with a separator.
type Logger struct {
	mu         sync.Mutex
	lastSymbol string

	zl   *zap.Logger
	file *os.File
}

func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	if cfg.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level))
	}

	var file *os.File
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %s", cfg.File)
		}
		file = f
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level))
	}

	zl := zap.New(zapcore.NewTee(cores...))
	if cfg.Service != "" {
		zl = zl.With(zap.String("service", cfg.Service))
	}
	return &Logger{zl: zl, file: file}, nil
}

// NewWithCore is used by tests to observe output.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{zl: zap.New(core)}
}

func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Log writes one line. It never panics and never returns an error.
func (l *Logger) Log(symbol string, level Level, msg string) {
	if l == nil || l.zl == nil {
		return
	}
	defer func() { _ = recover() }()

	l.mu.Lock()
	defer l.mu.Unlock()

	if symbol != l.lastSymbol {
		l.zl.Info(separator(symbol))
		l.lastSymbol = symbol
	}

	field := zap.String("symbol", symbol)
	switch level {
	case LevelError:
		l.zl.Error(msg, field)
	case LevelWarning:
		l.zl.Warn(msg, field)
	default:
		l.zl.Info(msg, field)
	}
}

func (l *Logger) Infof(symbol, format string, args ...any) {
	l.Log(symbol, LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(symbol, format string, args ...any) {
	l.Log(symbol, LevelWarning, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(symbol, format string, args ...any) {
	l.Log(symbol, LevelError, fmt.Sprintf(format, args...))
}

// Zap exposes the underlying logger for fx event logging.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zl == nil {
		return zap.NewNop()
	}
	return l.zl
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.zl.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func separator(symbol string) string {
	bar := strings.Repeat("-", separatorWidth)
	return bar + " " + symbol + " " + bar
}
