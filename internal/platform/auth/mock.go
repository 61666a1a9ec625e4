package auth

import (
	"context"
)

// MockVerifier provides fake token verification for tests.
type MockVerifier struct {
	User  *FirebaseUser
	Error error

	// Tokens records every token passed to Verify.
	Tokens []string
}

// Verify returns the configured user or error.
func (m *MockVerifier) Verify(_ context.Context, token string) (*FirebaseUser, error) {
	m.Tokens = append(m.Tokens, token)
	if m.Error != nil {
		return nil, m.Error
	}
	return m.User, nil
}

// TestUser returns a user signed in with a phone number.
func TestUser() *FirebaseUser {
	return &FirebaseUser{
		UID:            "test-user-123",
		PhoneNumber:    "+19876543210",
		SignInProvider: "phone",
	}
}

// Compile-time interface check
var _ Verifier = (*MockVerifier)(nil)
