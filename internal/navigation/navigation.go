// Package navigation names the screens the client can move between.
package navigation

import (
	"context"
	"sync"
)

// Route identifies a screen.
type Route string

const (
	Landing   Route = "/"
	SignIn    Route = "/signin"
	SignUp    Route = "/signup"
	Dashboard Route = "/dashboard"
)

func (r Route) String() string { return string(r) }

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(ctx context.Context, to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, to Route)

func (f NavigatorFunc) Navigate(ctx context.Context, to Route) { f(ctx, to) }

// History is a Navigator that remembers where it has been.
type History struct {
	mu     sync.Mutex
	routes []Route
}

// NewHistory starts at the given route.
func NewHistory(start Route) *History {
	return &History{routes: []Route{start}}
}

func (h *History) Navigate(_ context.Context, to Route) {
	h.mu.Lock()
	h.routes = append(h.routes, to)
	h.mu.Unlock()
}

// Current returns the most recent route, or Landing when empty.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return Landing
	}
	return h.routes[len(h.routes)-1]
}

// Routes returns every route visited, oldest first.
func (h *History) Routes() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Route(nil), h.routes...)
}
