// Package logging builds the process logger: a console core on stderr and,
// when a log file is configured, a rotated JSON file core.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is the console level ("debug", "info", "warn", "error"). Default warn.
	Level string
	// Debug forces the console to debug level.
	Debug bool
	// File enables a JSON log at this path, rotated by size.
	File string
	// MaxSizeMB is the rotation threshold. Default 10.
	MaxSizeMB int
	// Console overrides stderr; used by tests.
	Console io.Writer
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.WarnLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// New returns a logger for opt. The returned cleanup syncs and closes the
// file sink.
func New(opt Options) (*zap.Logger, func(), error) {
	lvl, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, nil, err
	}
	if opt.Debug {
		lvl = zapcore.DebugLevel
	}
	console := opt.Console
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(zapcore.AddSync(console)), lvl),
	}

	var rotator *lumberjack.Logger
	if opt.File != "" {
		size := opt.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		rotator = &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    size,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "timestamp"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileLvl := zapcore.InfoLevel
		if lvl < fileLvl {
			fileLvl = lvl
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), fileLvl))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return l, cleanup, nil
}
