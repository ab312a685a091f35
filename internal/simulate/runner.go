package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/steadilab/steadi/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	reportInterval       = 1 * time.Second
	trackingPollInterval = 100 * time.Millisecond
	trackingPollTimeout  = 30 * time.Second
)

// Run executes the complete simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
		ScoreMin:  math.Inf(1),
		ScoreMax:  math.Inf(-1),
	}

	task, err := TaskForProfile(config.Profile)
	if err != nil {
		return err
	}
	if config.FrameRate < 1 {
		return fmt.Errorf("frame rate must be at least 1, got %d", config.FrameRate)
	}
	if config.NumSessions < 1 {
		return fmt.Errorf("session count must be at least 1, got %d", config.NumSessions)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting steadi simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("profile", config.Profile),
		logger.String("task", string(task)),
		logger.Int("sessions", config.NumSessions),
		logger.Int("frameRate", config.FrameRate),
		logger.String("duration", config.Duration.String()),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Run sessions concurrently
	outcomes, err := runSessions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("session runs failed: %w", err)
	}

	// Step 3: Cross-check against the recent-results endpoint
	if err := verifyRecentResults(ctx, config, outcomes); err != nil {
		log.Printf("recent-results verification warning: %v", err)
	}

	// Step 4: Save outcomes to file
	if err := saveOutcomesToFile(ctx, config, outcomes); err != nil {
		logger.Get().Warn(ctx, "failed to save outcomes to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(config, stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != 200 {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// runSessions drives the configured number of sessions through a worker
// pool and collects their outcomes.
func runSessions(ctx context.Context, config *Config, stats *Stats) ([]sessionOutcome, error) {
	log.Printf("Running %d %s sessions with %d workers...", config.NumSessions, config.Profile, config.Workers)

	client := newHTTPClient(config.Timeout)

	outcomes := make([]sessionOutcome, config.NumSessions)
	outcomeOK := make([]bool, config.NumSessions)

	var (
		finished     int64
		failed       int64
		framesSent   int64
		framesFailed int64
	)

	var lastReport time.Time

	indexChan := make(chan int, config.Workers)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					outcome, err := runSingleSession(ctx, client, config, &framesSent, &framesFailed)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("session %d failed: %v", index, err)
						}
					} else {
						outcomes[index] = outcome
						outcomeOK[index] = true
						atomic.AddInt64(&finished, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						done := atomic.LoadInt64(&finished)
						fail := atomic.LoadInt64(&failed)
						if config.Verbose {
							log.Printf("progress: %d/%d sessions (finished: %d, failed: %d)",
								done+fail, config.NumSessions, done, fail)
						} else {
							fmt.Printf("\rSessions: %d/%d (finished: %d, failed: %d)",
								done+fail, config.NumSessions, done, fail)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < config.NumSessions; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.SessionsRun = int(atomic.LoadInt64(&finished) + atomic.LoadInt64(&failed))
	stats.SessionsFinished = int(atomic.LoadInt64(&finished))
	stats.SessionsFailed = int(atomic.LoadInt64(&failed))
	stats.FramesSent = int(atomic.LoadInt64(&framesSent))
	stats.FramesFailed = int(atomic.LoadInt64(&framesFailed))

	// Compact out failed slots and fold scores into the stats.
	collected := make([]sessionOutcome, 0, stats.SessionsFinished)
	for i, ok := range outcomeOK {
		if !ok {
			continue
		}
		outcome := outcomes[i]
		collected = append(collected, outcome)
		stats.ScoreSum += outcome.Score
		if outcome.Score < stats.ScoreMin {
			stats.ScoreMin = outcome.Score
		}
		if outcome.Score > stats.ScoreMax {
			stats.ScoreMax = outcome.Score
		}
	}

	log.Printf("Session runs completed: finished=%d failed=%d", stats.SessionsFinished, stats.SessionsFailed)
	return collected, nil
}

// runSingleSession walks one session through its full lifecycle: create,
// start, stream frames at the configured rate, finish early, fetch the
// result.
func runSingleSession(ctx context.Context, client *HTTPClient, config *Config, framesSent, framesFailed *int64) (sessionOutcome, error) {
	task, err := TaskForProfile(config.Profile)
	if err != nil {
		return sessionOutcome{}, err
	}
	nextFrame, err := frameGenerator(config.Profile, config.FrameRate)
	if err != nil {
		return sessionOutcome{}, err
	}

	sessionID, err := createSession(ctx, client, config.BaseURL, task)
	if err != nil {
		return sessionOutcome{}, err
	}

	if err := sendCommand(ctx, client, config.BaseURL, sessionID, "start"); err != nil {
		return sessionOutcome{}, err
	}

	// Wait out the service-side countdown before streaming.
	if err := waitForTracking(ctx, client, config, sessionID); err != nil {
		return sessionOutcome{}, err
	}

	frameCount := int(config.Duration.Seconds() * float64(config.FrameRate))
	if frameCount < 1 {
		frameCount = 1
	}
	interval := time.Second / time.Duration(config.FrameRate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for i := 0; i < frameCount; i++ {
		select {
		case <-ctx.Done():
			return sessionOutcome{}, ctx.Err()
		case <-ticker.C:
			if err := pushFrame(ctx, client, config.BaseURL, sessionID, nextFrame(i)); err != nil {
				atomic.AddInt64(framesFailed, 1)
				if config.Verbose {
					log.Printf("frame %d for session %s failed: %v", i, sessionID, err)
				}
				continue
			}
			sent++
			atomic.AddInt64(framesSent, 1)
		}
	}

	// The service's own duration timer may have already ended the
	// session, in which case finishing early is rejected but a result
	// exists anyway.
	finishErr := sendCommand(ctx, client, config.BaseURL, sessionID, "finish_early")

	result, err := getResult(ctx, client, config.BaseURL, sessionID)
	if err != nil {
		if finishErr != nil {
			return sessionOutcome{}, finishErr
		}
		return sessionOutcome{}, err
	}

	return sessionOutcome{
		SessionID:   result.SessionID,
		Profile:     config.Profile,
		Score:       result.Score,
		SampleCount: result.SampleCount,
		FramesSent:  sent,
	}, nil
}

// waitForTracking polls the session status until the tracking phase
// begins. Sessions with a zero countdown pass on the first poll.
func waitForTracking(ctx context.Context, client *HTTPClient, config *Config, sessionID string) error {
	deadline := time.Now().Add(trackingPollTimeout)
	for {
		status, err := getStatus(ctx, client, config.BaseURL, sessionID)
		if err != nil {
			return err
		}
		switch status.State {
		case "tracking":
			return nil
		case "done":
			return fmt.Errorf("session %s finished before tracking started", sessionID)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("session %s never reached tracking (state %q)", sessionID, status.State)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(trackingPollInterval):
		}
	}
}

// verifyRecentResults checks that the sessions just run are visible on
// the recent-results endpoint.
func verifyRecentResults(ctx context.Context, config *Config, outcomes []sessionOutcome) error {
	log.Println("Verifying recent results...")

	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to verify")
	}

	client := newHTTPClient(config.Timeout)
	recent, err := getRecentResults(ctx, client, config.BaseURL, len(outcomes))
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		return fmt.Errorf("recent-results endpoint returned nothing")
	}

	seen := make(map[string]bool, len(recent))
	for _, r := range recent {
		seen[r.SessionID] = true
	}

	missing := 0
	for _, outcome := range outcomes {
		if !seen[outcome.SessionID] {
			missing++
		}
	}
	// Other clients may have pushed results in between, so absence is a
	// warning rather than a failure unless everything is missing.
	if missing == len(outcomes) {
		return fmt.Errorf("none of the %d finished sessions appear in recent results", len(outcomes))
	}
	if missing > 0 {
		log.Printf("%d of %d finished sessions not in the recent window", missing, len(outcomes))
	} else {
		log.Println("All finished sessions visible in recent results")
	}
	return nil
}

// saveOutcomesToFile saves the collected outcomes to a JSON file.
func saveOutcomesToFile(ctx context.Context, config *Config, outcomes []sessionOutcome) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "simulate_results_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if err := writeOutcomesJSON(file, outcomes); err != nil {
		return err
	}

	logger.Get().Info(ctx, "outcomes saved to file", logger.String("filename", filename))
	return nil
}

// writeOutcomesJSON writes the outcomes as an indented JSON array.
func writeOutcomesJSON(file *os.File, outcomes []sessionOutcome) error {
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outcomes); err != nil {
		return fmt.Errorf("failed to encode outcomes: %w", err)
	}
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(config *Config, stats *Stats) {
	var successRate, meanScore float64

	if stats.SessionsRun > 0 {
		successRate = float64(stats.SessionsFinished) / float64(stats.SessionsRun) * PercentageMultiplier
	}
	if stats.SessionsFinished > 0 {
		meanScore = stats.ScoreSum / float64(stats.SessionsFinished)
	}

	scoreMin := stats.ScoreMin
	scoreMax := stats.ScoreMax
	if stats.SessionsFinished == 0 {
		scoreMin, scoreMax = 0, 0
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.String("profile", config.Profile),
		logger.Int("sessionsRun", stats.SessionsRun),
		logger.Int("sessionsFinished", stats.SessionsFinished),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("framesSent", stats.FramesSent),
		logger.Int("framesFailed", stats.FramesFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("meanScore", meanScore),
		logger.Float64("minScore", scoreMin),
		logger.Float64("maxScore", scoreMax))
}
