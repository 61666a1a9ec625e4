package signup

import "errors"

// Flow errors
var (
	ErrEmptyPhone       = errors.New("phone number is required")
	ErrBusy             = errors.New("another request is in progress")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrWrongStep        = errors.New("action not available in the current step")
	ErrClosed           = errors.New("sign-up flow closed")
)

// Form errors
var (
	ErrRequired     = errors.New("field is required")
	ErrUnknownField = errors.New("unknown field")
)

// Messages shown to the person signing up.
const (
	msgEmptyPhone       = "Enter your phone number."
	msgNotAuthenticated = "Your session has ended. Verify your phone number again."
	msgSubmitFallback   = "Failed to submit profile"
	msgBotCheck         = "We couldn't verify you're human. Try again."
)
