package feedsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
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
		logFile = "feedsim_log_" + timestamp + ".log"
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

// ShowHelp prints usage information for the feed simulator.
func ShowHelp() {
	os.Stdout.WriteString(`LuxQueue Feed Simulator
=======================

A concurrent tool that drives a LuxQueue server through a scripted live
session: it opens submissions, seeds a queue, links viewer handles, pumps
a randomized feed of likes, comments, shares, follows and gifts, then
reads the queues back and checks tier ordering and gift promotions.

Usage:
  go run cmd/feed-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -events int
        Number of feed events to generate and submit (default 5000)
  -handles int
        Number of distinct viewer handles (default 50)
  -submitters int
        Number of seed submissions to create (default 25)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated events (default: feed_events_TIMESTAMP.json)
  -log string
        Log file for simulator output (default: feedsim_log_TIMESTAMP.log)
  -keep-session
        Leave the session open instead of closing it at the end
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/feed-sim/main.go

  # A heavier run against a remote host
  go run cmd/feed-sim/main.go -events 50000 -handles 200 -workers 16 -url http://queue.internal:9080

  # Keep the session open for a follow-up run
  go run cmd/feed-sim/main.go -events 2000 -keep-session

  # Verbose output with a custom log file
  go run cmd/feed-sim/main.go -verbose -log my_run.log
`)
}
