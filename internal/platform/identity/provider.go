// Package identity talks to the phone-number identity provider: it sends
// one-time codes, confirms them, keeps the signed-in session and hands out
// fresh ID tokens for calls to the profile API.
package identity

import (
	"context"
	"time"
)

// Verification is the pending state between sending a code and confirming it.
// ID is opaque to callers.
type Verification struct {
	ID     string
	Phone  string
	SentAt time.Time
}

// Session describes the signed-in user.
type Session struct {
	UID       string
	Phone     string
	ExpiresAt time.Time
}

// Provider defines the identity operations used by the sign-up flow and the dashboard.
type Provider interface {
	// SendChallenge texts a one-time code to phone. botToken proves the
	// request came from a human.
	SendChallenge(ctx context.Context, phone, botToken string) (*Verification, error)
	// Confirm exchanges the code for a session.
	Confirm(ctx context.Context, v *Verification, code string) (*Session, error)
	// IDToken returns a bearer token for the current session, refreshing it when expired.
	IDToken(ctx context.Context) (string, error)
	// CurrentSession returns nil when signed out.
	CurrentSession() *Session
	// Subscribe calls fn with the current session immediately and again on
	// every sign-in or sign-out until the returned func is called.
	Subscribe(fn func(*Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// listeners is the subscription registry shared by Provider implementations.
// Callbacks run without any lock held.
type listeners struct {
	next int
	fns  map[int]func(*Session)
}

func (l *listeners) add(fn func(*Session)) int {
	if l.fns == nil {
		l.fns = make(map[int]func(*Session))
	}
	l.next++
	l.fns[l.next] = fn
	return l.next
}

func (l *listeners) remove(id int) {
	delete(l.fns, id)
}

func (l *listeners) snapshot() []func(*Session) {
	out := make([]func(*Session), 0, len(l.fns))
	for i := 1; i <= l.next; i++ {
		if fn, ok := l.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(fns []func(*Session), s *Session) {
	for _, fn := range fns {
		fn(s)
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
