// Package logging sets up the calculator's slog pipeline and adapts loggers
// to the interfaces other packages expect.
package logging

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ExtensionName prefixes log files.
const ExtensionName = "pearl_calculator"

const sessionLayout = "20060102_150405"

// LogFilePath names the log file of a session: <name>.<yyyymmdd_hhmmss>.log
// inside logsDir.
func LogFilePath(logsDir, extensionName string, sessionStart time.Time) string {
	return filepath.Join(logsDir, extensionName+"."+sessionStart.Format(sessionLayout)+".log")
}

// OpenLogFile opens path for appending. A file left by an earlier session
// with the same timestamp is moved to <path>.old first.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".old"); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
}
