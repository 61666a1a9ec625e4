package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	applog "github.com/janisto/carpool-signup/internal/platform/logging"
)

const (
	defaultToolkitURL     = "https://identitytoolkit.googleapis.com"
	defaultSecureTokenURL = "https://securetoken.googleapis.com"
)

// ToolkitClient implements Provider against the Firebase Identity Toolkit REST API.
type ToolkitClient struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	secureTokenURL string
	now            func() time.Time

	mu        sync.Mutex
	session   *Session
	source    oauth2.TokenSource
	listeners listeners
}

// Option configures a ToolkitClient.
type Option func(*ToolkitClient)

// WithBaseURL sets the Identity Toolkit base URL (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *ToolkitClient) {
		c.baseURL = u
	}
}

// WithSecureTokenURL sets the token refresh base URL.
func WithSecureTokenURL(u string) Option {
	return func(c *ToolkitClient) {
		c.secureTokenURL = u
	}
}

// WithEmulator points both endpoints at a Firebase Auth emulator ("host:port").
func WithEmulator(host string) Option {
	return func(c *ToolkitClient) {
		c.baseURL = "http://" + host + "/identitytoolkit.googleapis.com"
		c.secureTokenURL = "http://" + host + "/securetoken.googleapis.com"
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ToolkitClient) {
		c.now = now
	}
}

// NewToolkitClient creates a client for the project identified by apiKey.
func NewToolkitClient(httpClient *http.Client, apiKey string, opts ...Option) *ToolkitClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &ToolkitClient{
		httpClient:     httpClient,
		apiKey:         apiKey,
		baseURL:        defaultToolkitURL,
		secureTokenURL: defaultSecureTokenURL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendCodeRequest struct {
	PhoneNumber    string `json:"phoneNumber"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

type sendCodeResponse struct {
	SessionInfo string `json:"sessionInfo"`
}

type signInRequest struct {
	SessionInfo string `json:"sessionInfo"`
	Code        string `json:"code"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	PhoneNumber  string `json:"phoneNumber"`
	IsNewUser    bool   `json:"isNewUser"`
}

type toolkitErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendChallenge asks the provider to text a code to phone.
func (c *ToolkitClient) SendChallenge(ctx context.Context, phone, botToken string) (*Verification, error) {
	var out sendCodeResponse
	err := c.post(ctx, "/v1/accounts:sendVerificationCode", sendCodeRequest{
		PhoneNumber:    phone,
		RecaptchaToken: botToken,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("sending verification code: %w", err)
	}
	if out.SessionInfo == "" {
		return nil, fmt.Errorf("sending verification code: %w", ErrProvider)
	}
	return &Verification{ID: out.SessionInfo, Phone: phone, SentAt: c.now()}, nil
}

// Confirm signs in with the code and notifies subscribers.
func (c *ToolkitClient) Confirm(ctx context.Context, v *Verification, code string) (*Session, error) {
	if v == nil || v.ID == "" {
		return nil, fmt.Errorf("confirming code: %w", ErrCodeExpired)
	}
	var out signInResponse
	err := c.post(ctx, "/v1/accounts:signInWithPhoneNumber", signInRequest{
		SessionInfo: v.ID,
		Code:        code,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("confirming code: %w", err)
	}
	if out.IDToken == "" {
		return nil, fmt.Errorf("confirming code: %w", ErrProvider)
	}

	expiry := c.now().Add(expiresIn(out.ExpiresIn))
	claims, err := parseClaims(out.IDToken)
	if err == nil && !claims.expiresAt.IsZero() {
		expiry = claims.expiresAt
	}
	phone := out.PhoneNumber
	if phone == "" {
		phone = claims.phone
	}
	if phone == "" {
		phone = v.Phone
	}

	token := &oauth2.Token{
		AccessToken:  out.IDToken,
		TokenType:    "Bearer",
		RefreshToken: out.RefreshToken,
		Expiry:       expiry,
	}
	session := &Session{UID: out.LocalID, Phone: phone, ExpiresAt: expiry}

	c.mu.Lock()
	c.session = session
	c.source = c.tokenSource(token)
	fns := c.listeners.snapshot()
	c.mu.Unlock()

	applog.LogInfo(ctx, "identity session started",
		zap.String("uid", session.UID),
		zap.Bool("newUser", out.IsNewUser),
	)
	notify(fns, copySession(session))
	return copySession(session), nil
}

// IDToken returns the current ID token, refreshing it through the secure
// token endpoint once it has expired. The refresh runs without holding the
// client lock.
func (c *ToolkitClient) IDToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	src := c.source
	c.mu.Unlock()
	if src == nil {
		return "", ErrNoSession
	}

	tok, err := src.Token()
	if err != nil {
		applog.LogWarn(ctx, "identity token refresh failed", zap.Error(err))
		return "", fmt.Errorf("refreshing id token: %w", mapRefreshError(err))
	}

	idToken := tok.AccessToken
	if extra, ok := tok.Extra("id_token").(string); ok && extra != "" {
		idToken = extra
	}
	expiry := tok.Expiry
	if claims, err := parseClaims(idToken); err == nil && !claims.expiresAt.IsZero() {
		expiry = claims.expiresAt
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Signed out or signed in again while refreshing.
	if c.source != src || c.session == nil {
		return "", ErrNoSession
	}
	if !expiry.IsZero() {
		c.session.ExpiresAt = expiry
	}
	return idToken, nil
}

// CurrentSession returns a copy of the session, or nil when signed out.
func (c *ToolkitClient) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session)
}

// Subscribe registers fn for session changes.
func (c *ToolkitClient) Subscribe(fn func(*Session)) func() {
	c.mu.Lock()
	id := c.listeners.add(fn)
	current := copySession(c.session)
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.listeners.remove(id)
			c.mu.Unlock()
		})
	}
}

// SignOut drops the local session. Tokens already issued stay valid until they expire.
func (c *ToolkitClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.source = nil
	fns := c.listeners.snapshot()
	c.mu.Unlock()

	if had {
		applog.LogInfo(ctx, "identity session ended")
	}
	notify(fns, nil)
	return nil
}

func (c *ToolkitClient) tokenSource(tok *oauth2.Token) oauth2.TokenSource {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.secureTokenURL + "/v1/token?key=" + url.QueryEscape(c.apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	// The refresh request outlives any single caller's context.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	return conf.TokenSource(ctx, tok)
}

func (c *ToolkitClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	u := c.baseURL + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return providerErrorFromResponse(ctx, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding identity response: %w", err)
	}
	return nil
}

func providerErrorFromResponse(ctx context.Context, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload toolkitErrorResponse
	code := ""
	if err := json.Unmarshal(data, &payload); err == nil {
		code = parseErrorCode(payload.Error.Message)
	}
	applog.LogWarn(ctx, "identity provider rejected request",
		zap.Int("status", resp.StatusCode),
		zap.String("code", code),
	)
	return &ProviderError{Status: resp.StatusCode, Code: code, cause: sentinelFor(code)}
}

func mapRefreshError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		code := re.ErrorCode
		if code == "" {
			var payload toolkitErrorResponse
			if json.Unmarshal(re.Body, &payload) == nil {
				code = parseErrorCode(payload.Error.Message)
			}
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		switch code {
		case "TOKEN_EXPIRED", "USER_DISABLED", "USER_NOT_FOUND", "INVALID_REFRESH_TOKEN":
			return &ProviderError{Status: status, Code: code, cause: ErrNoSession}
		}
		return &ProviderError{Status: status, Code: code, cause: ErrProvider}
	}
	return err
}

func expiresIn(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}

type tokenClaims struct {
	expiresAt time.Time
	phone     string
}

// parseClaims reads claims without verifying the signature; the token came
// straight from the provider over TLS and is only inspected for its expiry.
func parseClaims(raw string) (tokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenClaims{}, err
	}
	var out tokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expiresAt = exp.Time
	}
	out.phone, _ = claims["phone_number"].(string)
	return out, nil
}

// Compile-time interface check
var _ Provider = (*ToolkitClient)(nil)
