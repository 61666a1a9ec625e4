// Package config reads process configuration from the environment. A .env file
// in the working directory, when present, seeds variables that are not already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort          = "8080"
	DefaultProfileAPIURL = "http://localhost:8080"
	DefaultCountryCode   = "+1"
	DefaultHTTPTimeout   = 30 * time.Second
)

const (
	defaultEnvFile        = ".env"
	envPort               = "PORT"
	envProjectID          = "FIREBASE_PROJECT_ID"
	envCredentials        = "GOOGLE_APPLICATION_CREDENTIALS"
	envAPIKey             = "FIREBASE_API_KEY"
	envAuthEmulatorHost   = "FIREBASE_AUTH_EMULATOR_HOST"
	envProfileAPIURL      = "PROFILE_API_URL"
	envDefaultCountryCode = "DEFAULT_COUNTRY_CODE"
	envBotCheckToken      = "BOTCHECK_TOKEN"
	envProfileAPICBOR     = "PROFILE_API_CBOR"
	envHTTPTimeout        = "HTTP_TIMEOUT"
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// Config holds settings shared by the terminal client and the profile API server.
type Config struct {
	// Server
	Port                         string
	ProjectID                    string
	GoogleApplicationCredentials string

	// Client
	APIKey             string
	AuthEmulatorHost   string
	ProfileAPIURL      string
	DefaultCountryCode string
	BotCheckToken      string
	ProfileAPICBOR     bool
	HTTPTimeout        time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	return LoadFile(defaultEnvFile)
}

// LoadFile is Load with an explicit env file path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:                         getenv(envPort, DefaultPort),
		ProjectID:                    os.Getenv(envProjectID),
		GoogleApplicationCredentials: os.Getenv(envCredentials),
		APIKey:                       os.Getenv(envAPIKey),
		AuthEmulatorHost:             os.Getenv(envAuthEmulatorHost),
		ProfileAPIURL:                strings.TrimRight(getenv(envProfileAPIURL, DefaultProfileAPIURL), "/"),
		DefaultCountryCode:           getenv(envDefaultCountryCode, DefaultCountryCode),
		BotCheckToken:                os.Getenv(envBotCheckToken),
		HTTPTimeout:                  DefaultHTTPTimeout,
	}

	if raw := os.Getenv(envProfileAPICBOR); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, envProfileAPICBOR, raw)
		}
		cfg.ProfileAPICBOR = v
	}
	if raw := os.Getenv(envHTTPTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: %s=%q is not a non-negative duration", ErrInvalid, envHTTPTimeout, raw)
		}
		cfg.HTTPTimeout = d
	}
	if err := ValidateCountryCode(cfg.DefaultCountryCode); err != nil {
		return nil, fmt.Errorf("%s: %w", envDefaultCountryCode, err)
	}

	return cfg, nil
}

// ValidateCountryCode accepts a calling code such as "+1" or "+91": a '+'
// followed by one to three digits.
func ValidateCountryCode(code string) error {
	digits, ok := strings.CutPrefix(code, "+")
	if !ok || len(digits) == 0 || len(digits) > 3 {
		return fmt.Errorf("%w: country code must be '+' and 1-3 digits, got %q", ErrInvalid, code)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: country code must be '+' and 1-3 digits, got %q", ErrInvalid, code)
		}
	}
	return nil
}

// UsesAuthEmulator reports whether identity calls go to the Firebase Auth emulator.
func (c *Config) UsesAuthEmulator() bool {
	return c.AuthEmulatorHost != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
