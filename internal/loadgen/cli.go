package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/peri/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends output to both console and file. If logFile is empty,
// a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if logFile == "" {
		logFile = "load_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	if err := logger.Init(logger.WithOutput(multiWriter)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`Peri Load Tool
==============

Drives synthetic users through the Peri risk API: profile, full interview,
optional save of conversational detections and a risk request. Every risk
score is checked against a local replay of the same interview.

Usage:
  go run ./cmd/peri-load [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -users int
        Number of synthetic users (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        Wait before checking background snapshots (default 2s)
  -output string
        Output file for generated personas (default: generated_personas_TIMESTAMP.json)
  -log string
        Log file for run output (default: load_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/peri-load -users 1000 -workers 16
  go run ./cmd/peri-load -url http://localhost:8080 -verbose
`)
}
