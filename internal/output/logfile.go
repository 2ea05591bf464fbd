package output

import (
	"os"
	"path/filepath"
)

// LogFilePath returns the path to the log file.
// If REVSYNC_LOG_FILE is set, uses that path.
// Otherwise, uses ~/.revsync/logs/revsync.log
func LogFilePath() string {
	if customPath := os.Getenv("REVSYNC_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "revsync.log"
	}

	return filepath.Join(homeDir, ".revsync", "logs", "revsync.log")
}
