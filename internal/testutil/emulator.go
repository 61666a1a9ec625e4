package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

const (
	AuthEmulatorHost      = "127.0.0.1:7110"
	FirestoreEmulatorHost = "127.0.0.1:7130"
	ProjectID             = "demo-test-project"
	APIKey                = "fake-api-key" //nolint:gosec // Test-only fake key for emulator
)

func emulatorAvailable(host string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// SkipIfEmulatorUnavailable skips the test if the Firebase emulators are not running.
func SkipIfEmulatorUnavailable(t *testing.T) {
	t.Helper()
	if !emulatorAvailable(AuthEmulatorHost) || !emulatorAvailable(FirestoreEmulatorHost) {
		t.Skip("Firebase emulators not available")
	}
}

// SkipIfAuthUnavailable skips the test if the Auth emulator is not running.
func SkipIfAuthUnavailable(t *testing.T) {
	t.Helper()
	if !emulatorAvailable(AuthEmulatorHost) {
		t.Skip("Firebase Auth emulator not available")
	}
}

// SkipIfFirestoreUnavailable skips the test if the Firestore emulator is not running.
func SkipIfFirestoreUnavailable(t *testing.T) {
	t.Helper()
	if !emulatorAvailable(FirestoreEmulatorHost) {
		t.Skip("Firestore emulator not available")
	}
}

// SetupEmulator configures the environment for emulator testing.
func SetupEmulator(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", AuthEmulatorHost)
	t.Setenv("FIRESTORE_EMULATOR_HOST", FirestoreEmulatorHost)
}

func emulatorDelete(t *testing.T, url, what string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to clear %s: %v", what, err)
	}
	defer func() { _ = resp.Body.Close() }()
}

// ClearAccounts removes all users from the Auth emulator.
func ClearAccounts(t *testing.T) {
	t.Helper()
	emulatorDelete(t, fmt.Sprintf("http://%s/emulator/v1/projects/%s/accounts", AuthEmulatorHost, ProjectID),
		"accounts")
}

// ClearFirestore removes all documents from the Firestore emulator.
func ClearFirestore(t *testing.T) {
	t.Helper()
	emulatorDelete(t, fmt.Sprintf("http://%s/emulator/v1/projects/%s/databases/(default)/documents",
		FirestoreEmulatorHost, ProjectID), "Firestore")
}

// ClearEmulators clears both Auth accounts and Firestore documents.
func ClearEmulators(t *testing.T) {
	t.Helper()
	ClearAccounts(t)
	ClearFirestore(t)
}

// VerificationCode returns the most recent one-time code the Auth emulator
// issued for phone.
func VerificationCode(t *testing.T, phone string) string {
	t.Helper()
	url := fmt.Sprintf("http://%s/emulator/v1/projects/%s/verificationCodes", AuthEmulatorHost, ProjectID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to list verification codes: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		VerificationCodes []struct {
			PhoneNumber string `json:"phoneNumber"`
			Code        string `json:"code"`
		} `json:"verificationCodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode verification codes: %v", err)
	}
	code := ""
	for _, vc := range result.VerificationCodes {
		if vc.PhoneNumber == phone {
			code = vc.Code
		}
	}
	if code == "" {
		t.Fatalf("no verification code issued for %s", phone)
	}
	return code
}

// SignInResponse from the emulator.
type SignInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	PhoneNumber  string `json:"phoneNumber"`
}

// SignInWithPhone signs phone in through the Auth emulator and returns the ID token.
func SignInWithPhone(t *testing.T, phone string) *SignInResponse {
	t.Helper()

	var sent struct {
		SessionInfo string `json:"sessionInfo"`
	}
	postToolkit(t, "accounts:sendVerificationCode", map[string]any{"phoneNumber": phone}, &sent)

	var result SignInResponse
	postToolkit(t, "accounts:signInWithPhoneNumber", map[string]any{
		"sessionInfo": sent.SessionInfo,
		"code":        VerificationCode(t, phone),
	}, &result)
	return &result
}

func postToolkit(t *testing.T, method string, payload, out any) {
	t.Helper()
	url := fmt.Sprintf("http://%s/identitytoolkit.googleapis.com/v1/%s?key=%s", AuthEmulatorHost, method, APIKey)
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s failed: %v", method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s returned %d", method, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode %s response: %v", method, err)
	}
}
