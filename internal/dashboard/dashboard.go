// Package dashboard shows the signed-in user's profile.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/janisto/carpool-signup/internal/client/profileapi"
	"github.com/janisto/carpool-signup/internal/navigation"
	"github.com/janisto/carpool-signup/internal/platform/identity"
	applog "github.com/janisto/carpool-signup/internal/platform/logging"
)

// State is the render state of the dashboard.
type State int

const (
	StateLoading State = iota
	StateError
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	msgNotFound   = "We couldn't find your profile. Finish signing up first."
	msgLoadFailed = "We couldn't load your profile. Try again."
)

// ProfileFetcher retrieves the signed-in user's profile.
type ProfileFetcher interface {
	Get(ctx context.Context, token string) (*profileapi.StoredProfile, error)
}

// UserProfile is the read-only profile shown on the dashboard.
type UserProfile struct {
	Name    string
	Email   string
	Address string
	Vehicle string
	Kids    string
	Phone   string
}

// View is a snapshot for rendering. Profile is set only in StateReady and
// Message only in StateError.
type View struct {
	State   State
	Profile *UserProfile
	Message string
}

// Config holds the collaborators of a Controller.
type Config struct {
	Identity  identity.Provider
	Profiles  ProfileFetcher
	Navigator navigation.Navigator
}

// Controller drives the dashboard between mount and unmount.
type Controller struct {
	identity identity.Provider
	profiles ProfileFetcher
	nav      navigation.Navigator

	mu          sync.Mutex
	ctx         context.Context
	mounted     bool
	unsubscribe func()
	seq         int
	state       State
	profile     *UserProfile
	message     string
}

// New creates an unmounted controller in StateLoading.
func New(cfg Config) *Controller {
	return &Controller{
		identity: cfg.Identity,
		profiles: cfg.Profiles,
		nav:      cfg.Navigator,
		state:    StateLoading,
	}
}

// Mount subscribes to session changes. Without a session the user is sent
// to sign-in; with one the profile is loaded. Calling Mount again while
// mounted does nothing.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.ctx = ctx
	c.mu.Unlock()

	unsubscribe := c.identity.Subscribe(c.onSession)

	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		unsubscribe()
		return
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Unmount drops the session subscription.
func (c *Controller) Unmount() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mounted = false
	c.seq++
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Retry reloads the profile after an error.
func (c *Controller) Retry(ctx context.Context) {
	if c.identity.CurrentSession() == nil {
		c.nav.Navigate(ctx, navigation.SignIn)
		return
	}
	c.load(ctx)
}

// SignOut ends the session and returns to the landing page.
func (c *Controller) SignOut(ctx context.Context) error {
	c.Unmount()
	if err := c.identity.SignOut(ctx); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	applog.LogAuditEvent(ctx, "dashboard.sign_out", "", "session", "", applog.AuditSuccess, nil)
	c.nav.Navigate(ctx, navigation.Landing)
	return nil
}

// View returns the current render state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{State: c.state}
	switch c.state {
	case StateReady:
		p := *c.profile
		v.Profile = &p
	case StateError:
		v.Message = c.message
	case StateLoading:
	}
	return v
}

func (c *Controller) onSession(s *identity.Session) {
	c.mu.Lock()
	ctx := c.ctx
	mounted := c.mounted
	c.mu.Unlock()
	if !mounted {
		return
	}

	if s == nil {
		c.nav.Navigate(ctx, navigation.SignIn)
		return
	}
	c.load(ctx)
}

func (c *Controller) load(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = StateLoading
	c.profile = nil
	c.message = ""
	c.mu.Unlock()

	profile, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return
	}
	if err != nil {
		applog.LogWarn(ctx, "dashboard profile load failed", zap.Error(err))
		c.state = StateError
		c.message = loadMessage(err)
		return
	}
	c.state = StateReady
	c.profile = profile
}

func (c *Controller) fetch(ctx context.Context) (*UserProfile, error) {
	token, err := c.identity.IDToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching session token: %w", err)
	}
	p, err := c.profiles.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	phone := p.PhoneNumber
	if phone == "" {
		if s := c.identity.CurrentSession(); s != nil {
			phone = s.Phone
		}
	}
	return &UserProfile{
		Name:    p.Name,
		Email:   p.Email,
		Address: p.Address,
		Vehicle: p.Vehicle,
		Kids:    p.Kids,
		Phone:   phone,
	}, nil
}

func loadMessage(err error) string {
	if errors.Is(err, profileapi.ErrNotFound) {
		return msgNotFound
	}
	return msgLoadFailed
}
