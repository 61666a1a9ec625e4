package profile

import (
	"context"
	"sync"
	"time"
)

// MockProfileService implements Service for unit tests.
type MockProfileService struct {
	// Err, when set, is returned by every call.
	Err error

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMockProfileService creates a new mock service.
func NewMockProfileService() *MockProfileService {
	return &MockProfileService{
		profiles: make(map[string]*Profile),
	}
}

func (m *MockProfileService) Submit(_ context.Context, userID string, params SubmitParams) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	params = normalize(params)
	now := time.Now().UTC().Truncate(time.Microsecond)
	createdAt := now
	if existing, ok := m.profiles[userID]; ok {
		createdAt = existing.CreatedAt
	}
	p := &Profile{
		ID:          userID,
		Name:        params.Name,
		Email:       params.Email,
		Address:     params.Address,
		Vehicle:     params.Vehicle,
		Kids:        params.Kids,
		PhoneNumber: params.PhoneNumber,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	m.profiles[userID] = p
	c := *p
	return &c, nil
}

func (m *MockProfileService) Get(_ context.Context, userID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	p, exists := m.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

// Clear removes all profiles (useful for test cleanup).
func (m *MockProfileService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string]*Profile)
}

// Compile-time interface check
var _ Service = (*MockProfileService)(nil)
