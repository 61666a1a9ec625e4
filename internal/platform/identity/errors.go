package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Provider errors
var (
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrCodeExpired    = errors.New("verification code expired")
	ErrBotCheckFailed = errors.New("bot check failed")
	ErrQuotaExceeded  = errors.New("too many attempts")
	ErrNoSession      = errors.New("not signed in")
	ErrProvider       = errors.New("identity provider error")
)

// ProviderError carries the provider's error code and HTTP status.
type ProviderError struct {
	Status int
	Code   string
	cause  error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "identity provider error"
	}
	return fmt.Sprintf("identity provider error (code=%s status=%d): %v", e.Code, e.Status, e.cause)
}

// Unwrap enables errors.Is against the sentinel errors.
func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Identity Toolkit error codes arrive as "CODE" or "CODE : description".
func sentinelFor(code string) error {
	switch code {
	case "INVALID_PHONE_NUMBER", "MISSING_PHONE_NUMBER":
		return ErrInvalidPhone
	case "INVALID_CODE", "MISSING_CODE":
		return ErrInvalidCode
	case "SESSION_EXPIRED", "INVALID_SESSION_INFO", "MISSING_SESSION_INFO", "CODE_EXPIRED":
		return ErrCodeExpired
	case "CAPTCHA_CHECK_FAILED", "MISSING_RECAPTCHA_TOKEN", "INVALID_RECAPTCHA_TOKEN":
		return ErrBotCheckFailed
	case "QUOTA_EXCEEDED", "TOO_MANY_ATTEMPTS_TRY_LATER":
		return ErrQuotaExceeded
	default:
		return ErrProvider
	}
}

func parseErrorCode(message string) string {
	code, _, _ := strings.Cut(message, ":")
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, ' '); i >= 0 {
		code = code[:i]
	}
	return code
}

// Message returns a sentence suitable for showing to the person signing up.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPhone):
		return "That phone number doesn't look right. Check it and try again."
	case errors.Is(err, ErrInvalidCode):
		return "That code is incorrect. Check the message and try again."
	case errors.Is(err, ErrCodeExpired):
		return "That code has expired. Request a new one."
	case errors.Is(err, ErrBotCheckFailed):
		return "We couldn't verify you're human. Try again."
	case errors.Is(err, ErrQuotaExceeded):
		return "Too many attempts. Please wait a while and try again."
	case errors.Is(err, ErrNoSession):
		return "You are not signed in."
	default:
		return err.Error()
	}
}
