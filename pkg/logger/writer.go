// pkg/logger/writer.go

package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap/zapcore"
)

// LogPaths returns candidate log file locations in priority order.
func LogPaths() []string {
	paths := []string{"/var/log/infrastack/infrastack.log"}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		paths = append(paths, filepath.Join(state, "infrastack", "infrastack.log"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".local", "state", "infrastack", "infrastack.log"))
	}
	return append(paths, filepath.Join(os.TempDir(), "infrastack", "infrastack.log"))
}

// GetLogFileWriter opens path for appending, creating the directory 0700
// and the file 0600.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(file), nil
}

// FindWritableLogPath returns the first usable path from LogPaths.
func FindWritableLogPath() (string, zapcore.WriteSyncer, error) {
	for _, path := range LogPaths() {
		if w, err := GetLogFileWriter(path); err == nil {
			return path, w, nil
		}
	}
	return "", nil, fmt.Errorf("no writable log path found")
}

func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
