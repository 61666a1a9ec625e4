package botcheck

import (
	"context"
	"sync"
)

// MockFactory creates MockWidgets and tracks how many are alive.
type MockFactory struct {
	TokenErr  error
	CreateErr error

	mu      sync.Mutex
	created int
	widgets []*MockWidget
}

// New satisfies Factory.
func (f *MockFactory) New() (Widget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.created++
	w := &MockWidget{factory: f, token: "bot-token"}
	f.widgets = append(f.widgets, w)
	return w, nil
}

// Created returns the number of widgets created so far.
func (f *MockFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// Live returns the number of widgets not yet cleared.
func (f *MockFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.widgets {
		if !w.cleared {
			n++
		}
	}
	return n
}

// MockWidget is a Widget created by MockFactory.
type MockWidget struct {
	factory *MockFactory
	token   string
	cleared bool
}

func (w *MockWidget) Token(_ context.Context) (string, error) {
	w.factory.mu.Lock()
	defer w.factory.mu.Unlock()
	if w.cleared {
		return "", ErrCleared
	}
	if w.factory.TokenErr != nil {
		return "", w.factory.TokenErr
	}
	return w.token, nil
}

func (w *MockWidget) Clear() error {
	w.factory.mu.Lock()
	w.cleared = true
	w.factory.mu.Unlock()
	return nil
}
