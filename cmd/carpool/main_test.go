package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/janisto/carpool-signup/internal/platform/config"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-api", "http://api.test", "-country", "+44", "-cbor"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.apiURL != "http://api.test" || opts.countryCode != "+44" || !opts.cbor || !opts.cborSet {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.envFile != ".env" {
		t.Fatalf("expected default env file, got %q", opts.envFile)
	}
}

func TestParseFlagsRejectsUnknown(t *testing.T) {
	if _, err := parseFlags([]string{"-nope"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FIREBASE_API_KEY", "FIREBASE_AUTH_EMULATOR_HOST", "PROFILE_API_URL",
		"DEFAULT_COUNTRY_CODE", "PROFILE_API_CBOR", "HTTP_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	clearEnv(t)
	_, err := loadConfig(options{envFile: missingEnvFile(t)})
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadConfigEmulatorNeedsNoKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "127.0.0.1:7110")
	cfg, err := loadConfig(options{envFile: missingEnvFile(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UsesAuthEmulator() {
		t.Fatal("expected emulator")
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_API_KEY", "key")
	t.Setenv("PROFILE_API_URL", "http://env.test")
	t.Setenv("PROFILE_API_CBOR", "true")

	cfg, err := loadConfig(options{
		envFile:     missingEnvFile(t),
		apiURL:      "http://flag.test",
		countryCode: "+91",
		cbor:        false,
		cborSet:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProfileAPIURL != "http://flag.test" || cfg.DefaultCountryCode != "+91" || cfg.ProfileAPICBOR {
		t.Fatalf("flags did not override env: %+v", cfg)
	}
}

func TestLoadConfigRejectsCountryWithoutPlus(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_API_KEY", "key")
	for _, cc := range []string{"91", "+91x"} {
		_, err := loadConfig(options{envFile: missingEnvFile(t), countryCode: cc})
		if !errors.Is(err, config.ErrInvalid) {
			t.Fatalf("%q: expected ErrInvalid, got %v", cc, err)
		}
	}
}

func TestRunReturnsOnEndOfInput(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_API_KEY", "key")
	out := &bytes.Buffer{}
	if err := run(t.Context(), []string{"-env", missingEnvFile(t)}, &bytes.Buffer{}, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("Phone number")) {
		t.Fatalf("expected phone prompt, got %q", out.String())
	}
}
