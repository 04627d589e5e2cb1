// pkg/logger/logger.go

package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.Mutex
	log *zap.Logger

	// level is shared by every core so it can change after Initialize.
	level = zap.NewAtomicLevel()
)

// Options controls how the global logger is built.
type Options struct {
	// Level overrides LOG_LEVEL when non-empty.
	Level string
	// FilePath pins the JSON log file; empty means first writable of LogPaths().
	FilePath string
	// ConsoleOnly skips the JSON file core.
	ConsoleOnly bool
}

// Initialize builds the global logger: a console core on stderr (stdout is
// reserved for tables and command output) teed with a JSON file core.
// The result is installed as both the zap and otelzap global.
func Initialize(opts Options) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	levelName := opts.Level
	if levelName == "" {
		levelName = os.Getenv("LOG_LEVEL")
	}
	level.SetLevel(ParseLogLevel(levelName))

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()), zapcore.Lock(os.Stderr), level),
	}

	logPath := ""
	if !opts.ConsoleOnly {
		var writer zapcore.WriteSyncer
		var err error
		if opts.FilePath != "" {
			logPath = opts.FilePath
			writer, err = GetLogFileWriter(logPath)
		} else {
			logPath, writer, err = FindWritableLogPath()
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: no writable log path, logging to console only:", err)
			logPath = ""
		} else {
			jsonCfg := zap.NewProductionEncoderConfig()
			jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			jsonCfg.EncodeLevel = zapcore.CapitalLevelEncoder
			// the file always keeps info and above, even when the console is quieter
			fileLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= zapcore.InfoLevel || level.Enabled(l)
			})
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), writer, fileLevel))
		}
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(log)
	otelzap.ReplaceGlobals(otelzap.New(log))

	log.Debug("Logger initialized",
		zap.String("log_level", level.String()),
		zap.String("log_path", logPath))
	return log
}

// SetLevel changes the level of the installed logger in place.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level reports the current console level.
func Level() zapcore.Level {
	return level.Level()
}

// L returns the global logger, initializing a console-only logger if needed.
func L() *zap.Logger {
	mu.Lock()
	current := log
	mu.Unlock()
	if current == nil {
		return Initialize(Options{ConsoleOnly: true})
	}
	return current
}

// Sync flushes any buffered log entries. Should be called before the application exits.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		return nil
	}
	err := log.Sync()
	// syncing a terminal returns EINVAL/ENOTTY on linux
	if err != nil && isIgnorableSyncError(err) {
		return nil
	}
	return err
}

// ParseLogLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "TRACE", "DEBUG", "trace", "debug":
		return zapcore.DebugLevel
	case "WARN", "warn":
		return zapcore.WarnLevel
	case "ERROR", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func DefaultConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "T"
	cfg.LevelKey = "L"
	cfg.NameKey = "N"
	cfg.CallerKey = ""
	cfg.MessageKey = "M"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}
