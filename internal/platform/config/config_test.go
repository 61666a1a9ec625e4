package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envPort, envProjectID, envCredentials, envAPIKey, envAuthEmulatorHost,
		envProfileAPIURL, envDefaultCountryCode, envBotCheckToken, envProfileAPICBOR, envHTTPTimeout,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected port %s, got %s", DefaultPort, cfg.Port)
	}
	if cfg.ProfileAPIURL != DefaultProfileAPIURL {
		t.Errorf("expected API URL %s, got %s", DefaultProfileAPIURL, cfg.ProfileAPIURL)
	}
	if cfg.DefaultCountryCode != "+1" {
		t.Errorf("expected +1, got %s", cfg.DefaultCountryCode)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("expected %v, got %v", DefaultHTTPTimeout, cfg.HTTPTimeout)
	}
	if cfg.UsesAuthEmulator() {
		t.Error("expected emulator to be off")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(envProfileAPIURL, "https://api.example.com/")
	t.Setenv(envProfileAPICBOR, "true")
	t.Setenv(envHTTPTimeout, "5s")
	t.Setenv(envAuthEmulatorHost, "127.0.0.1:7110")
	t.Setenv(envDefaultCountryCode, "+91")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProfileAPIURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.ProfileAPIURL)
	}
	if !cfg.ProfileAPICBOR {
		t.Error("expected CBOR enabled")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.HTTPTimeout)
	}
	if !cfg.UsesAuthEmulator() {
		t.Error("expected emulator on")
	}
	if cfg.DefaultCountryCode != "+91" {
		t.Errorf("expected +91, got %s", cfg.DefaultCountryCode)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that already exist, even when empty.
	_ = os.Unsetenv(envAPIKey)
	t.Cleanup(func() { _ = os.Unsetenv(envAPIKey) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FIREBASE_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("expected API key from file, got %q", cfg.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"cbor", envProfileAPICBOR, "maybe"},
		{"timeout", envHTTPTimeout, "soon"},
		{"negative timeout", envHTTPTimeout, "-1s"},
		{"country code", envDefaultCountryCode, "91"},
		{"country code letters", envDefaultCountryCode, "+9a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFile("")
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateCountryCode(t *testing.T) {
	for _, code := range []string{"+1", "+44", "+358"} {
		if err := ValidateCountryCode(code); err != nil {
			t.Errorf("%q: unexpected error %v", code, err)
		}
	}
	for _, code := range []string{"", "+", "1", "91", "+1234", "+1-"} {
		if err := ValidateCountryCode(code); !errors.Is(err, ErrInvalid) {
			t.Errorf("%q: expected ErrInvalid, got %v", code, err)
		}
	}
}
