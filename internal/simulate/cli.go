package simulate

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/steadilab/steadi/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulate_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Steadi Session Simulator
========================

Streams synthetic landmark frames at a running Steadi instance and
collects the scores it produces.

Usage:
  go run cmd/simulate/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -profile string
        Movement profile: steady, tremor, fixation, saccade (default "steady")
  -sessions int
        Number of sessions to run (default 10)
  -rate int
        Frames pushed per second (default 30)
  -duration duration
        Tracking time per session before finishing early (default 5s)
  -workers int
        Number of concurrent session runners (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for collected results (default: simulate_results_TIMESTAMP.json)
  -log string
        Log file for simulation output (default: simulate_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Healthy motor hold with default settings
  go run cmd/simulate/main.go

  # Tremor profile against a custom instance
  go run cmd/simulate/main.go -profile tremor -url http://localhost:8080

  # Saccadic gaze, many concurrent sessions
  go run cmd/simulate/main.go -profile saccade -sessions 50 -workers 16

  # Slow frame rate with verbose output
  go run cmd/simulate/main.go -profile fixation -rate 10 -verbose
`)
}
