package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where cadence stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your cadence instance.
	InstanceURL string
	// Timezone is the IANA timezone used when interpreting stored event
	// dates for display and context building (e.g. "America/New_York").
	Timezone string

	// AI Configuration
	AIEnabled     bool    // CADENCE_AI_ENABLED
	AIBaseURL     string  // CADENCE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey      string  // CADENCE_AI_API_KEY
	AIModel       string  // CADENCE_AI_MODEL (default: gpt-4o-mini)
	AIMaxTokens   int     // CADENCE_AI_MAX_TOKENS (default: 1000)
	AITemperature float32 // CADENCE_AI_TEMPERATURE (default: 0.7)
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

// FromEnv loads configuration from CADENCE_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("CADENCE_AI_ENABLED") == "true"
	p.AIBaseURL = getEnvOrDefault("CADENCE_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIAPIKey = os.Getenv("CADENCE_AI_API_KEY")
	p.AIModel = getEnvOrDefault("CADENCE_AI_MODEL", "gpt-4o-mini")
	p.AIMaxTokens = getIntEnvOrDefault("CADENCE_AI_MAX_TOKENS", 1000)
	p.AITemperature = getFloatEnvOrDefault("CADENCE_AI_TEMPERATURE", 0.7)
	if p.Timezone == "" {
		p.Timezone = getEnvOrDefault("CADENCE_TIMEZONE", "Local")
	}
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

// TimeLocation resolves the configured timezone, falling back to the
// system location when the name does not resolve.
func (p *Profile) TimeLocation() *time.Location {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, falling back to local", slog.String("timezone", p.Timezone))
		return time.Local
	}
	return loc
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
			p.Data = filepath.Join(os.Getenv("ProgramData"), "cadence")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/cadence"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("cadence_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	return nil
}
