package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service errors
var (
	ErrNotFound = errors.New("profile not found")
)

// Profile represents stored carpool profile data.
type Profile struct {
	ID          string
	Name        string
	Email       string
	Address     string
	Vehicle     string
	Kids        string
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubmitParams is the sign-up form plus the verified phone number.
type SubmitParams struct {
	Name        string
	Email       string
	Address     string
	Vehicle     string
	Kids        string
	PhoneNumber string
}

// Service defines profile operations.
//
// Implementations must normalize input data:
//   - Email: lowercase and trim whitespace
//   - Other fields: trim whitespace
type Service interface {
	// Submit creates the profile or replaces an existing one, keeping CreatedAt.
	Submit(ctx context.Context, userID string, params SubmitParams) (*Profile, error)
	Get(ctx context.Context, userID string) (*Profile, error)
}

func normalize(p SubmitParams) SubmitParams {
	return SubmitParams{
		Name:        strings.TrimSpace(p.Name),
		Email:       strings.ToLower(strings.TrimSpace(p.Email)),
		Address:     strings.TrimSpace(p.Address),
		Vehicle:     strings.TrimSpace(p.Vehicle),
		Kids:        strings.TrimSpace(p.Kids),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
	}
}
