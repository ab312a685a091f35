package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/steadilab/steadi/internal/simulate"
)

// Default configuration constants.
const (
	defaultSessions   = 10
	defaultFrameRate  = 30
	defaultDuration   = 5 * time.Second
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		profile    = flag.String("profile", simulate.ProfileSteady, "Movement profile: steady, tremor, fixation, saccade")
		sessions   = flag.Int("sessions", defaultSessions, "Number of sessions to run")
		frameRate  = flag.Int("rate", defaultFrameRate, "Frames pushed per second")
		duration   = flag.Duration("duration", defaultDuration, "Tracking time per session before finishing early")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent session runners")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for collected results (default: simulate_results_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for simulation output (default: simulate_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	// Setup logging
	if err := simulate.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create simulation configuration
	config := &simulate.Config{
		BaseURL:     *baseURL,
		Profile:     *profile,
		NumSessions: *sessions,
		FrameRate:   *frameRate,
		Duration:    *duration,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the simulation
	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
