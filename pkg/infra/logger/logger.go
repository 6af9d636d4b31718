package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const logDir = "logs"

// NewLogger builds the JSON logger used by each server. Output goes to
// logs/<serverType>.log through an AsyncFileWriter and is mirrored on stdout.
func NewLogger(serverType string) *logrus.Logger {
	logger := newBaseLogger()

	logFile, err := logFilePath(serverType)
	if err != nil {
		log.Fatalf("invalid log file: %v", err)
	}
	if err := os.MkdirAll(logDir, 0750); err != nil {
		log.Fatalf("failed to create logs directory: %v", err)
	}

	asyncWriter, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		log.Fatalf("failed to initialize async log writer: %v", err)
	}
	logger.SetOutput(asyncWriter)
	logger.AddHook(NewConsoleHook(os.Stdout))

	return logger
}

func newBaseLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))
	return logger
}

func levelFromEnv(value string) logrus.Level {
	if value == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(strings.ToLower(value))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func logFilePath(serverType string) (string, error) {
	name := strings.TrimSpace(serverType)
	if name == "" {
		name = "gateway"
	}
	logFile := filepath.Clean(filepath.Join(logDir, name+".log"))
	if filepath.Dir(logFile) != logDir {
		return "", fmt.Errorf("log file %q must be in %s directory", logFile, logDir)
	}
	return logFile, nil
}
