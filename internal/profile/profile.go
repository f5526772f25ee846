package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration shared by all CLI commands.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory holding datasets, cohorts, and exports
	Data string
	// Version is the current version of the binary
	Version string

	// AI Configuration
	AIEnabled  bool   // MINDWEAVE_AI_ENABLED
	AIAPIKey   string // MINDWEAVE_AI_API_KEY
	AIBaseURL  string // MINDWEAVE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIModel    string // MINDWEAVE_AI_MODEL (default: gpt-4o-mini)
	AIMaxRetry int    // MINDWEAVE_AI_MAX_RETRIES (default: 3)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from MINDWEAVE_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("MINDWEAVE_AI_ENABLED") == "true"
	p.AIAPIKey = os.Getenv("MINDWEAVE_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("MINDWEAVE_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIModel = getEnvOrDefault("MINDWEAVE_AI_MODEL", "gpt-4o-mini")
	if p.AIMaxRetry == 0 {
		p.AIMaxRetry = 3
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "mindweave")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/mindweave"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	return nil
}
