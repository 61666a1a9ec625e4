package profile

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/carpool-signup/internal/platform/logging"
)

const profilesCollection = "profiles"

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal_error"
	}
}

// firestoreProfile maps to Firestore document structure.
type firestoreProfile struct {
	Name        string    `firestore:"name"`
	Email       string    `firestore:"email"`
	Address     string    `firestore:"address"`
	Vehicle     string    `firestore:"vehicle"`
	Kids        string    `firestore:"kids"`
	PhoneNumber string    `firestore:"phone_number"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func (fp firestoreProfile) toProfile(userID string) *Profile {
	return &Profile{
		ID:          userID,
		Name:        fp.Name,
		Email:       fp.Email,
		Address:     fp.Address,
		Vehicle:     fp.Vehicle,
		Kids:        fp.Kids,
		PhoneNumber: fp.PhoneNumber,
		CreatedAt:   fp.CreatedAt,
		UpdatedAt:   fp.UpdatedAt,
	}
}

// FirestoreStore implements Service using Firestore with transactions.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Submit upserts the profile inside a transaction so CreatedAt survives resubmission.
func (s *FirestoreStore) Submit(ctx context.Context, userID string, params SubmitParams) (*Profile, error) {
	docRef := s.client.Collection(profilesCollection).Doc(userID)
	params = normalize(params)
	// Firestore keeps microseconds.
	now := time.Now().UTC().Truncate(time.Microsecond)

	var result *Profile
	created := false

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		createdAt := now
		created = true
		doc, err := tx.Get(docRef)
		switch {
		case err == nil && doc.Exists():
			var existing firestoreProfile
			if err := doc.DataTo(&existing); err != nil {
				return err
			}
			if !existing.CreatedAt.IsZero() {
				createdAt = existing.CreatedAt
			}
			created = false
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		}

		fp := firestoreProfile{
			Name:        params.Name,
			Email:       params.Email,
			Address:     params.Address,
			Vehicle:     params.Vehicle,
			Kids:        params.Kids,
			PhoneNumber: params.PhoneNumber,
			CreatedAt:   createdAt,
			UpdatedAt:   now,
		}
		if err := tx.Set(docRef, fp); err != nil {
			return err
		}
		result = fp.toProfile(userID)
		return nil
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "submit", userID, "profile", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, "submit", userID, "profile", userID, applog.AuditSuccess,
		map[string]any{"created": created})

	return result, nil
}

// Get retrieves a profile by user ID.
func (s *FirestoreStore) Get(ctx context.Context, userID string) (*Profile, error) {
	docRef := s.client.Collection(profilesCollection).Doc(userID)
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return nil, err
	}
	return fp.toProfile(userID), nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
