package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testAPIKey = "test-key"

func signedToken(t *testing.T, exp time.Time, phone string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          "uid-1",
		"phone_number": phone,
		"exp":          exp.Unix(),
	})
	s, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

type fakeToolkit struct {
	mu          sync.Mutex
	idToken     string
	refreshed   string
	refreshes   int
	lastRefresh string
	sendBodies  []sendCodeRequest

	// refreshing, when set, receives once a refresh arrives; the refresh
	// then waits for release.
	refreshing chan struct{}
	release    chan struct{}
}

func (f *fakeToolkit) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/accounts:sendVerificationCode", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != testAPIKey {
			t.Errorf("missing api key")
		}
		var in sendCodeRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.sendBodies = append(f.sendBodies, in)
		f.mu.Unlock()
		if in.PhoneNumber == "+1" {
			writeToolkitError(w, "INVALID_PHONE_NUMBER : Invalid format.")
			return
		}
		_ = json.NewEncoder(w).Encode(sendCodeResponse{SessionInfo: "session-abc"})
	})
	mux.HandleFunc("POST /v1/accounts:signInWithPhoneNumber", func(w http.ResponseWriter, r *http.Request) {
		var in signInRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch {
		case in.SessionInfo != "session-abc":
			writeToolkitError(w, "SESSION_EXPIRED")
		case in.Code != "123456":
			writeToolkitError(w, "INVALID_CODE")
		default:
			_ = json.NewEncoder(w).Encode(signInResponse{
				IDToken:      f.idToken,
				RefreshToken: "refresh-1",
				ExpiresIn:    "3600",
				LocalID:      "uid-1",
				PhoneNumber:  "+19876543210",
				IsNewUser:    true,
			})
		}
	})
	mux.HandleFunc("POST /v1/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		f.mu.Lock()
		f.refreshes++
		f.lastRefresh = r.PostForm.Get("refresh_token")
		f.mu.Unlock()
		if f.refreshing != nil {
			f.refreshing <- struct{}{}
			<-f.release
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected grant_type %q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  f.refreshed,
			"id_token":      f.refreshed,
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"token_type":    "Bearer",
			"user_id":       "uid-1",
		})
	})
	return mux
}

func writeToolkitError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": 400, "message": message},
	})
}

func newTestClient(t *testing.T, f *fakeToolkit, opts ...Option) *ToolkitClient {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL), WithSecureTokenURL(srv.URL)}, opts...)
	return NewToolkitClient(srv.Client(), testAPIKey, opts...)
}

func TestSendChallenge(t *testing.T) {
	f := &fakeToolkit{}
	c := newTestClient(t, f)

	v, err := c.SendChallenge(context.Background(), "+19876543210", "bot-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID != "session-abc" || v.Phone != "+19876543210" {
		t.Fatalf("unexpected verification %+v", v)
	}
	if len(f.sendBodies) != 1 || f.sendBodies[0].RecaptchaToken != "bot-token" {
		t.Fatalf("expected bot token forwarded, got %+v", f.sendBodies)
	}
}

func TestSendChallengeMapsProviderError(t *testing.T) {
	c := newTestClient(t, &fakeToolkit{})

	_, err := c.SendChallenge(context.Background(), "+1", "bot-token")
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if pe.Status != http.StatusBadRequest || pe.Code != "INVALID_PHONE_NUMBER" {
		t.Fatalf("unexpected provider error %+v", pe)
	}
}

func TestConfirmStartsSessionAndNotifies(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	f := &fakeToolkit{idToken: signedToken(t, exp, "+19876543210")}
	c := newTestClient(t, f)

	var seen []*Session
	unsubscribe := c.Subscribe(func(s *Session) { seen = append(seen, s) })
	defer unsubscribe()

	v, err := c.SendChallenge(context.Background(), "+19876543210", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	s, err := c.Confirm(context.Background(), v, "123456")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if s.UID != "uid-1" || s.Phone != "+19876543210" {
		t.Fatalf("unexpected session %+v", s)
	}
	if !s.ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry from token claims %v, got %v", exp, s.ExpiresAt)
	}
	if len(seen) != 2 || seen[0] != nil || seen[1] == nil {
		t.Fatalf("expected nil then session notifications, got %v", seen)
	}

	token, err := c.IDToken(context.Background())
	if err != nil {
		t.Fatalf("id token: %v", err)
	}
	if token != f.idToken {
		t.Fatal("expected the issued token without refresh")
	}
	if f.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", f.refreshes)
	}
}

func TestConfirmErrors(t *testing.T) {
	f := &fakeToolkit{idToken: signedToken(t, time.Now().Add(time.Hour), "")}
	c := newTestClient(t, f)

	_, err := c.Confirm(context.Background(), &Verification{ID: "session-abc"}, "000000")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	_, err = c.Confirm(context.Background(), &Verification{ID: "stale"}, "123456")
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
	_, err = c.Confirm(context.Background(), nil, "123456")
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired for nil verification, got %v", err)
	}
	if c.CurrentSession() != nil {
		t.Fatal("expected no session after failures")
	}
}

func TestIDTokenRefreshesExpiredToken(t *testing.T) {
	f := &fakeToolkit{
		idToken:   signedToken(t, time.Now().Add(-time.Minute), "+19876543210"),
		refreshed: signedToken(t, time.Now().Add(time.Hour), "+19876543210"),
	}
	c := newTestClient(t, f)

	if _, err := c.Confirm(context.Background(), &Verification{ID: "session-abc"}, "123456"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	token, err := c.IDToken(context.Background())
	if err != nil {
		t.Fatalf("id token: %v", err)
	}
	if token != f.refreshed {
		t.Fatal("expected refreshed token")
	}
	if f.refreshes != 1 || f.lastRefresh != "refresh-1" {
		t.Fatalf("expected one refresh with refresh-1, got %d %q", f.refreshes, f.lastRefresh)
	}
	if !c.CurrentSession().ExpiresAt.After(time.Now()) {
		t.Fatal("expected session expiry to move forward")
	}
}

func TestConfirmUsesClockWithoutExpiryClaim(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeToolkit{idToken: "opaque-token"}
	c := newTestClient(t, f, WithClock(func() time.Time { return now }))

	v, err := c.SendChallenge(context.Background(), "+19876543210", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !v.SentAt.Equal(now) {
		t.Fatalf("expected SentAt %v, got %v", now, v.SentAt)
	}
	s, err := c.Confirm(context.Background(), v, "123456")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if want := now.Add(time.Hour); !s.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v from expiresIn, got %v", want, s.ExpiresAt)
	}
}

func TestIDTokenRefreshDoesNotBlockSession(t *testing.T) {
	f := &fakeToolkit{
		idToken:    signedToken(t, time.Now().Add(-time.Minute), "+19876543210"),
		refreshed:  signedToken(t, time.Now().Add(time.Hour), "+19876543210"),
		refreshing: make(chan struct{}),
		release:    make(chan struct{}),
	}
	c := newTestClient(t, f)
	if _, err := c.Confirm(context.Background(), &Verification{ID: "session-abc"}, "123456"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := c.IDToken(context.Background())
		errc <- err
	}()
	<-f.refreshing

	done := make(chan struct{})
	go func() {
		defer close(done)
		if c.CurrentSession() == nil {
			t.Error("expected a session during refresh")
		}
		_ = c.SignOut(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session calls blocked by the token refresh")
	}

	close(f.release)
	if err := <-errc; !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after sign-out during refresh, got %v", err)
	}
}

func TestSignOut(t *testing.T) {
	f := &fakeToolkit{idToken: signedToken(t, time.Now().Add(time.Hour), "")}
	c := newTestClient(t, f)
	if _, err := c.Confirm(context.Background(), &Verification{ID: "session-abc"}, "123456"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	last := &Session{}
	unsubscribe := c.Subscribe(func(s *Session) { last = s })
	if last == nil {
		t.Fatal("expected current session on subscribe")
	}

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if last != nil {
		t.Fatal("expected nil session notification")
	}
	if _, err := c.IDToken(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	unsubscribe()
	unsubscribe()
	last = &Session{}
	_ = c.SignOut(context.Background())
	if last == nil {
		t.Fatal("unsubscribed listener must not be called")
	}
}

func TestWithEmulator(t *testing.T) {
	c := NewToolkitClient(nil, "k", WithEmulator("127.0.0.1:7110"))
	if c.baseURL != "http://127.0.0.1:7110/identitytoolkit.googleapis.com" {
		t.Fatalf("unexpected base URL %s", c.baseURL)
	}
	if c.secureTokenURL != "http://127.0.0.1:7110/securetoken.googleapis.com" {
		t.Fatalf("unexpected secure token URL %s", c.secureTokenURL)
	}
}
