package profile

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockSubmitNormalizes(t *testing.T) {
	svc := NewMockProfileService()
	p, err := svc.Submit(context.Background(), "user-123", SubmitParams{
		Name:        "  Jane ",
		Email:       " JANE@Example.com ",
		Address:     "1 Elm St ",
		PhoneNumber: " +19876543210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Jane" || p.Email != "jane@example.com" || p.Address != "1 Elm St" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.PhoneNumber != "+19876543210" {
		t.Fatalf("expected trimmed phone, got %q", p.PhoneNumber)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatal("expected CreatedAt == UpdatedAt on first submit")
	}
}

func TestMockSubmitKeepsCreatedAt(t *testing.T) {
	svc := NewMockProfileService()
	ctx := context.Background()
	first, _ := svc.Submit(ctx, "user-123", SubmitParams{Name: "Jane", Address: "1 Elm St"})
	time.Sleep(time.Millisecond)
	second, err := svc.Submit(ctx, "user-123", SubmitParams{Name: "Jane", Address: "2 Oak Ave", Kids: "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("expected CreatedAt to survive resubmission")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatal("expected UpdatedAt to move forward")
	}

	got, err := svc.Get(ctx, "user-123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Address != "2 Oak Ave" || got.Kids != "2" {
		t.Fatalf("unexpected stored profile %+v", got)
	}
}

func TestMockGetNotFound(t *testing.T) {
	svc := NewMockProfileService()
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockErrAndClear(t *testing.T) {
	svc := NewMockProfileService()
	ctx := context.Background()
	_, _ = svc.Submit(ctx, "user-123", SubmitParams{Name: "Jane", Address: "1 Elm St"})

	boom := errors.New("boom")
	svc.Err = boom
	if _, err := svc.Get(ctx, "user-123"); !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
	svc.Err = nil

	svc.Clear()
	if _, err := svc.Get(ctx, "user-123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Clear, got %v", err)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := map[error]string{
		ErrNotFound:              "not_found",
		context.DeadlineExceeded: "canceled",
		errors.New("x"):          "internal_error",
	}
	for err, want := range tests {
		if got := categorizeError(err); got != want {
			t.Errorf("categorizeError(%v) = %q, want %q", err, got, want)
		}
	}
}
