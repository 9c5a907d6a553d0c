package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/peri/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete load run.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	logger.Get().Info(ctx, "starting peri load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.String("logFile", cfg.LogFile),
		logger.Bool("verbose", cfg.Verbose))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	personas, err := generatePersonas(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("persona generation failed: %w", err)
	}

	outcomes := drivePersonas(ctx, cfg, personas, stats)

	if err := verifyResults(ctx, cfg, personas, outcomes, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if cfg.Settle > 0 {
		logger.Get().Info(ctx, "waiting for background recomputes", logger.String("settle", cfg.Settle.String()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Settle):
		}
	}
	if missing := verifyLatest(ctx, cfg, outcomes); missing > 0 {
		logger.Get().Warn(ctx, "users without a stored snapshot", logger.Int("missing", missing))
	}

	if err := savePersonasToFile(ctx, cfg, personas); err != nil {
		logger.Get().Warn(ctx, "failed to save personas to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.UsersFailed > 0 {
		return fmt.Errorf("%d users failed", stats.UsersFailed)
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	status, err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// savePersonasToFile writes the generated personas as a JSON array.
func savePersonasToFile(ctx context.Context, cfg *Config, personas []Persona) error {
	if len(personas) == 0 {
		return fmt.Errorf("no personas to save")
	}

	filename := cfg.OutputFile
	if filename == "" {
		filename = "generated_personas_" + time.Now().Format("20060102_150405") + ".json"
	}

	if dir := filepath.Dir(filename); dir != "." {
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

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(personas); err != nil {
		return fmt.Errorf("failed to write personas: %w", err)
	}

	logger.Get().Info(ctx, "personas saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, usersPerSecond float64

	if stats.UsersDriven > 0 {
		successRate = float64(stats.UsersDriven-stats.UsersFailed) / float64(stats.UsersDriven) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		usersPerSecond = float64(stats.UsersDriven) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("usersGenerated", stats.UsersGenerated),
		logger.Int("usersDriven", stats.UsersDriven),
		logger.Int("usersFailed", stats.UsersFailed),
		logger.Int("utterances", stats.Utterances),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("assessed", stats.Assessed),
		logger.Int("insufficient", stats.Insufficient),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("usersPerSecond", usersPerSecond))
}
