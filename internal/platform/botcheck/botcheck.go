// Package botcheck provides the invisible human-verification widget that
// guards code requests.
package botcheck

import (
	"context"
	"errors"
	"sync"
)

// ErrCleared is returned by a widget after Clear.
var ErrCleared = errors.New("verification widget cleared")

// Widget produces a token proving the requester is human.
type Widget interface {
	Token(ctx context.Context) (string, error)
	// Clear releases the widget. It is safe to call more than once.
	Clear() error
}

// Factory creates a new widget instance.
type Factory func() (Widget, error)

// Static is a widget that always answers with a fixed token. The Auth
// emulator accepts any value, and command-line callers pass a token
// obtained out of band.
type Static struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

// NewStatic returns a Factory producing Static widgets for token.
func NewStatic(token string) Factory {
	return func() (Widget, error) {
		return &Static{token: token}, nil
	}
}

func (s *Static) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared {
		return "", ErrCleared
	}
	return s.token, nil
}

func (s *Static) Clear() error {
	s.mu.Lock()
	s.cleared = true
	s.mu.Unlock()
	return nil
}
