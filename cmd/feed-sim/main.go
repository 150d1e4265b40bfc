package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/feedsim"
)

// Default configuration constants.
const (
	defaultNumEvents     = 5000
	defaultNumHandles    = 50
	defaultNumSubmitters = 25
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEvents     = flag.Int("events", defaultNumEvents, "Number of feed events to generate and submit")
		numHandles    = flag.Int("handles", defaultNumHandles, "Number of distinct viewer handles")
		numSubmitters = flag.Int("submitters", defaultNumSubmitters, "Number of seed submissions to create")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile    = flag.String("output", "", "Output file for generated events (default: feed_events_TIMESTAMP.json)")
		logFile       = flag.String("log", "", "Log file for simulator output (default: feedsim_log_TIMESTAMP.log)")
		keepSession   = flag.Bool("keep-session", false, "Leave the session open instead of closing it")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		feedsim.ShowHelp()
		return
	}

	// Setup logging
	if err := feedsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create simulator configuration
	config := &feedsim.Config{
		BaseURL:       *baseURL,
		NumEvents:     *numEvents,
		NumHandles:    *numHandles,
		NumSubmitters: *numSubmitters,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		LogFile:       *logFile,
		KeepSession:   *keepSession,
		Verbose:       *verbose,
	}

	// Run the simulation
	if err := feedsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
