package common

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	loggersMu sync.Mutex
	loggers   = map[string]*zap.SugaredLogger{}
)

// GetLogger returns the named component logger, creating it on first use.
// All loggers share one console core and one adjustable level.
func GetLogger(name string) *zap.SugaredLogger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		TimeKey:          "time",
		NameKey:          "name",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " | ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		logLevel,
	)

	l := zap.New(core).Named(name).Sugar()
	loggers[name] = l
	return l
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// SetLogLevel adjusts the level of every logger created by GetLogger.
// Accepted levels: debug, info, warn/warning, error.
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "info":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warning", "warn":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		logLevel.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
	return nil
}
