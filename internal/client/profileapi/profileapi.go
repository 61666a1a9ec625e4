// Package profileapi is the HTTP client for the remote profile API.
package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/carpool-signup/internal/platform/logging"
)

const (
	userAgent = "carpool-signup"

	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

// Client errors
var (
	ErrUnauthorized = errors.New("profile api: unauthorized")
	ErrNotFound     = errors.New("profile api: profile not found")
	ErrUpstream     = errors.New("profile api: request failed")
)

// APIError is a non-2xx answer. Detail is the server's explanation, if any.
type APIError struct {
	Status int
	Detail string
	cause  error
}

// NewAPIError classifies status into one of the client errors.
func NewAPIError(status int, detail string) *APIError {
	var cause error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		cause = ErrUnauthorized
	case http.StatusNotFound:
		cause = ErrNotFound
	default:
		cause = ErrUpstream
	}
	return &APIError{Status: status, Detail: detail, cause: cause}
}

func (e *APIError) Error() string {
	if e == nil {
		return "profile api error"
	}
	if e.Detail == "" {
		return fmt.Sprintf("profile api error (status=%d)", e.Status)
	}
	return fmt.Sprintf("profile api error (status=%d): %s", e.Status, e.Detail)
}

// Unwrap enables errors.Is against the sentinel client errors.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Profile is the record submitted at the end of sign-up.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Vehicle string `json:"vehicle"`
	Kids    string `json:"kids"`
}

// StoredProfile is a profile as returned by the API.
type StoredProfile struct {
	Profile
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// problem is the subset of an RFC 9457 body the client reads.
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// Client talks to the profile API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	useCBOR    bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API origin, e.g. "https://api.example.com".
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCBOR sends and accepts CBOR instead of JSON.
func WithCBOR(enabled bool) Option {
	return func(c *Client) {
		c.useCBOR = enabled
	}
}

// NewClient creates a profile API client.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{httpClient: httpClient, baseURL: "http://localhost:8080"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts the profile with the caller's bearer token.
func (c *Client) Submit(ctx context.Context, token string, p Profile) error {
	resp, err := c.do(ctx, http.MethodPost, "/submit-profile", token, p)
	if err != nil {
		return fmt.Errorf("submitting profile: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFromResponse(ctx, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Get returns the caller's stored profile.
func (c *Client) Get(ctx context.Context, token string) (*StoredProfile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/profile", token, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFromResponse(ctx, resp)
	}
	var out StoredProfile
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := c.marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", c.contentType())
	}
	req.Header.Set("Accept", c.contentType())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(applog.TraceparentHeader, outgoingTrace(ctx).String())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

// outgoingTrace is a child of the caller's trace, or a fresh trace.
func outgoingTrace(ctx context.Context) applog.Traceparent {
	if tp, ok := applog.TraceparentFromContext(ctx); ok {
		return tp.Child()
	}
	return applog.NewTraceparent()
}

func (c *Client) contentType() string {
	if c.useCBOR {
		return contentTypeCBOR
	}
	return contentTypeJSON
}

func (c *Client) marshal(v any) ([]byte, error) {
	if c.useCBOR {
		return cbor.Marshal(v)
	}
	return json.Marshal(v)
}

func decodeBody(resp *http.Response, target any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if isCBOR(resp.Header.Get("Content-Type")) {
		return cbor.Unmarshal(data, target)
	}
	return json.Unmarshal(data, target)
}

func isCBOR(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == contentTypeCBOR || strings.HasSuffix(mt, "+cbor")
}

func apiErrorFromResponse(ctx context.Context, resp *http.Response) error {
	var p problem
	if err := decodeBody(resp, &p); err != nil {
		p = problem{}
	}

	applog.LogWarn(ctx, "profile api request failed",
		zap.Int("status", resp.StatusCode),
		zap.String("detail", p.Detail),
	)
	return NewAPIError(resp.StatusCode, p.Detail)
}
