// Package signup implements the phone sign-up flow: a phone number is
// verified with a one-time code, then the new user's profile is submitted.
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/janisto/carpool-signup/internal/client/profileapi"
	"github.com/janisto/carpool-signup/internal/navigation"
	"github.com/janisto/carpool-signup/internal/platform/botcheck"
	"github.com/janisto/carpool-signup/internal/platform/identity"
	applog "github.com/janisto/carpool-signup/internal/platform/logging"
)

// ProfileSubmitter sends the finished profile to the profile API.
type ProfileSubmitter interface {
	Submit(ctx context.Context, token string, p profileapi.Profile) error
}

// Config holds the collaborators of a Flow.
type Config struct {
	Identity  identity.Provider
	Widgets   botcheck.Factory
	Profiles  ProfileSubmitter
	Navigator navigation.Navigator
	// CountryCode defaults to DefaultCountryCode.
	CountryCode string
}

// View is a snapshot of the flow for rendering.
type View struct {
	Step    Step
	Phone   string
	Busy    bool
	Message string
}

// Flow is the sign-up state machine. It owns at most one verification
// widget; Close releases it.
type Flow struct {
	identity    identity.Provider
	widgets     botcheck.Factory
	profiles    ProfileSubmitter
	nav         navigation.Navigator
	countryCode string
	trace       applog.Traceparent

	busy atomic.Bool

	mu           sync.Mutex
	step         Step
	phone        string
	verification *identity.Verification
	confirmed    *identity.Session // set once the pending code was accepted
	token        string
	uid          string
	widget       botcheck.Widget
	message      string
	closed       bool
}

// New creates a flow in StepPhone. Every call the flow makes joins one trace,
// so the profile API's logs for a sign-up can be found together.
func New(cfg Config) *Flow {
	cc := cfg.CountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}
	return &Flow{
		identity:    cfg.Identity,
		widgets:     cfg.Widgets,
		profiles:    cfg.Profiles,
		nav:         cfg.Navigator,
		countryCode: cc,
		trace:       applog.NewTraceparent(),
		step:        StepPhone,
	}
}

// Step returns the active step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Busy reports whether a transition is in flight.
func (f *Flow) Busy() bool {
	return f.busy.Load()
}

// Message returns the error to display, or "".
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// View returns a consistent snapshot of the flow.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{Step: f.step, Phone: f.phone, Busy: f.busy.Load(), Message: f.message}
}

// HasVerification reports whether a code is pending confirmation.
func (f *Flow) HasVerification() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verification != nil
}

func (f *Flow) begin() error {
	if !f.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (f *Flow) end() {
	f.busy.Store(false)
}

func (f *Flow) fail(msg string) {
	f.mu.Lock()
	f.message = msg
	f.mu.Unlock()
}

// SubmitPhone requests a one-time code for phone and moves to StepCode.
func (f *Flow) SubmitPhone(ctx context.Context, phone string) error {
	if err := f.begin(); err != nil {
		return err
	}
	defer f.end()
	ctx = applog.WithTraceparent(ctx, f.trace)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	switch f.step {
	case StepPhone:
	case StepCode, StepProfile:
		f.mu.Unlock()
		return ErrWrongStep
	}
	if strings.TrimSpace(phone) == "" {
		f.message = msgEmptyPhone
		f.mu.Unlock()
		return ErrEmptyPhone
	}
	widget, err := f.replaceWidgetLocked(ctx)
	f.mu.Unlock()
	if err != nil {
		f.fail(msgBotCheck)
		return fmt.Errorf("creating verification widget: %w", err)
	}

	botToken, err := widget.Token(ctx)
	if err != nil {
		f.fail(msgBotCheck)
		f.audit(ctx, "signup.challenge", "", applog.AuditFailure, map[string]any{"reason": "bot_check"})
		return fmt.Errorf("bot check: %w", err)
	}

	normalized := NormalizePhone(phone, f.countryCode)
	v, err := f.identity.SendChallenge(ctx, normalized, botToken)
	if err != nil {
		f.fail(identity.Message(err))
		f.audit(ctx, "signup.challenge", "", applog.AuditFailure, map[string]any{
			"phone":  maskPhone(normalized),
			"reason": reason(err),
		})
		return err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.phone = normalized
	f.verification = v
	f.confirmed = nil
	f.step = StepCode
	f.message = ""
	f.mu.Unlock()

	f.audit(ctx, "signup.challenge", "", applog.AuditSuccess, map[string]any{"phone": maskPhone(normalized)})
	return nil
}

// replaceWidgetLocked tears down the current widget and creates a new one.
func (f *Flow) replaceWidgetLocked(ctx context.Context) (botcheck.Widget, error) {
	f.clearWidgetLocked(ctx)
	w, err := f.widgets()
	if err != nil {
		return nil, err
	}
	f.widget = w
	return w, nil
}

func (f *Flow) clearWidgetLocked(ctx context.Context) {
	if f.widget == nil {
		return
	}
	if err := f.widget.Clear(); err != nil {
		applog.LogWarn(ctx, "verification widget teardown failed", zap.Error(err))
	}
	f.widget = nil
}

// SubmitCode confirms the one-time code and moves to StepProfile. It does
// nothing when no code is pending.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	if err := f.begin(); err != nil {
		return err
	}
	defer f.end()
	ctx = applog.WithTraceparent(ctx, f.trace)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	v := f.verification
	session := f.confirmed
	f.mu.Unlock()
	if v == nil {
		return nil
	}

	// A verification can be confirmed only once; after a token failure the
	// retry goes straight to the token.
	if session == nil {
		var err error
		session, err = f.identity.Confirm(ctx, v, strings.TrimSpace(code))
		if err != nil {
			f.fail(identity.Message(err))
			f.audit(ctx, "signup.confirm", "", applog.AuditFailure, map[string]any{"reason": reason(err)})
			return err
		}
		f.mu.Lock()
		if f.verification == v {
			f.confirmed = session
		}
		f.mu.Unlock()
	}
	token, err := f.identity.IDToken(ctx)
	if err != nil {
		f.fail(identity.Message(err))
		f.audit(ctx, "signup.confirm", session.UID, applog.AuditFailure, map[string]any{"reason": "token"})
		return fmt.Errorf("fetching session token: %w", err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.verification = nil
	f.confirmed = nil
	f.token = token
	f.uid = session.UID
	f.step = StepProfile
	f.message = ""
	f.mu.Unlock()

	f.audit(ctx, "signup.confirm", session.UID, applog.AuditSuccess, nil)
	return nil
}

// ChangeNumber drops the pending code and returns to StepPhone.
func (f *Flow) ChangeNumber() error {
	if err := f.begin(); err != nil {
		return err
	}
	defer f.end()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	switch f.step {
	case StepCode:
		f.verification = nil
		f.confirmed = nil
		f.step = StepPhone
		f.message = ""
		return nil
	case StepPhone, StepProfile:
		return ErrWrongStep
	}
	return ErrWrongStep
}

// SubmitProfile sends the profile with the session token and navigates to
// the dashboard on success. On failure the flow stays in StepProfile.
func (f *Flow) SubmitProfile(ctx context.Context, data ProfileFormData) error {
	if err := f.begin(); err != nil {
		return err
	}
	defer f.end()
	ctx = applog.WithTraceparent(ctx, f.trace)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	token, uid, step := f.token, f.uid, f.step
	if token == "" {
		f.message = msgNotAuthenticated
		f.mu.Unlock()
		return ErrNotAuthenticated
	}
	f.mu.Unlock()

	switch step {
	case StepProfile:
	case StepPhone, StepCode:
		return ErrWrongStep
	}

	// Tokens last an hour; the provider refreshes them if the form sat idle.
	if fresh, err := f.identity.IDToken(ctx); err == nil && fresh != "" {
		token = fresh
	}

	err := f.profiles.Submit(ctx, token, profileapi.Profile{
		Name:    data.Name,
		Email:   data.Email,
		Address: data.Address,
		Vehicle: data.Vehicle,
		Kids:    data.Kids,
	})
	if err != nil {
		f.fail(submitMessage(err))
		f.audit(ctx, "signup.submit", uid, applog.AuditFailure, map[string]any{"reason": reason(err)})
		return err
	}

	f.mu.Lock()
	f.message = ""
	f.mu.Unlock()
	f.audit(ctx, "signup.submit", uid, applog.AuditSuccess, nil)
	f.nav.Navigate(ctx, navigation.Dashboard)
	return nil
}

// Close releases the verification widget and forgets the session token.
// It is safe to call from any step and more than once.
func (f *Flow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	var err error
	if f.widget != nil {
		err = f.widget.Clear()
		f.widget = nil
	}
	f.verification = nil
	f.confirmed = nil
	f.token = ""
	return err
}

func submitMessage(err error) string {
	var apiErr *profileapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return msgSubmitFallback
}

// reason returns a log-safe category for err.
func reason(err error) string {
	var pe *identity.ProviderError
	var apiErr *profileapi.APIError
	switch {
	case errors.As(err, &pe) && pe.Code != "":
		return strings.ToLower(pe.Code)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("status_%d", apiErr.Status)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func (f *Flow) audit(ctx context.Context, action, uid, result string, details map[string]any) {
	applog.LogAuditEvent(ctx, action, uid, "signup", "", result, details)
}
