package identity

import (
	"context"
	"sync"
	"time"
)

// SendCall records one SendChallenge invocation.
type SendCall struct {
	Phone    string
	BotToken string
}

// MockProvider provides a scriptable Provider for tests.
type MockProvider struct {
	SendErr    error
	ConfirmErr error
	TokenErr   error
	// Token is returned by IDToken while signed in.
	Token string
	// User is the session Confirm signs in.
	User *Session
	// Hold, when set, blocks SendChallenge until it is closed.
	Hold chan struct{}

	mu           sync.Mutex
	sendCalls    []SendCall
	confirmCalls []string
	signOuts     int
	session      *Session
	listeners    listeners
}

// NewMockProvider returns a provider that accepts any code.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Token: "test-id-token",
		User: &Session{
			UID:       "test-user-123",
			Phone:     "+19876543210",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockProvider) SendChallenge(ctx context.Context, phone, botToken string) (*Verification, error) {
	m.mu.Lock()
	m.sendCalls = append(m.sendCalls, SendCall{Phone: phone, BotToken: botToken})
	hold := m.Hold
	m.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	return &Verification{ID: "verification-" + phone, Phone: phone, SentAt: time.Now()}, nil
}

func (m *MockProvider) Confirm(_ context.Context, _ *Verification, code string) (*Session, error) {
	m.mu.Lock()
	m.confirmCalls = append(m.confirmCalls, code)
	if m.ConfirmErr != nil {
		m.mu.Unlock()
		return nil, m.ConfirmErr
	}
	m.session = copySession(m.User)
	fns := m.listeners.snapshot()
	m.mu.Unlock()

	notify(fns, copySession(m.User))
	return copySession(m.User), nil
}

func (m *MockProvider) IDToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	if m.session == nil {
		return "", ErrNoSession
	}
	return m.Token, nil
}

func (m *MockProvider) CurrentSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.session)
}

func (m *MockProvider) Subscribe(fn func(*Session)) func() {
	m.mu.Lock()
	id := m.listeners.add(fn)
	current := copySession(m.session)
	m.mu.Unlock()

	fn(current)
	return func() {
		m.mu.Lock()
		m.listeners.remove(id)
		m.mu.Unlock()
	}
}

func (m *MockProvider) SignOut(_ context.Context) error {
	m.SetSession(nil)
	m.mu.Lock()
	m.signOuts++
	m.mu.Unlock()
	return nil
}

// SetSession replaces the session and notifies subscribers.
func (m *MockProvider) SetSession(s *Session) {
	m.mu.Lock()
	m.session = copySession(s)
	fns := m.listeners.snapshot()
	m.mu.Unlock()
	notify(fns, copySession(s))
}

// SendCalls returns the recorded SendChallenge calls.
func (m *MockProvider) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SendCall(nil), m.sendCalls...)
}

// ConfirmCalls returns the codes passed to Confirm.
func (m *MockProvider) ConfirmCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.confirmCalls...)
}

// SignOuts returns how many times SignOut ran.
func (m *MockProvider) SignOuts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signOuts
}

// Subscribers returns the number of active subscriptions.
func (m *MockProvider) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners.fns)
}

// Compile-time interface check
var _ Provider = (*MockProvider)(nil)
