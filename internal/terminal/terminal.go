// Package terminal renders the sign-up flow and the dashboard as line
// prompts.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/janisto/carpool-signup/internal/dashboard"
	"github.com/janisto/carpool-signup/internal/navigation"
	"github.com/janisto/carpool-signup/internal/platform/botcheck"
	"github.com/janisto/carpool-signup/internal/platform/identity"
	"github.com/janisto/carpool-signup/internal/signup"
)

var errQuit = errors.New("quit")

// ProfileAPI is the remote profile API used by both screens.
type ProfileAPI interface {
	signup.ProfileSubmitter
	dashboard.ProfileFetcher
}

// Config holds what the terminal needs to build screens.
type Config struct {
	Identity    identity.Provider
	Widgets     botcheck.Factory
	Profiles    ProfileAPI
	CountryCode string
}

// App drives the screens until the user quits or signs out.
type App struct {
	cfg Config
	in  *bufio.Reader
	out io.Writer
	nav *navigation.History
}

// New creates an App reading answers from in and writing prompts to out.
func New(cfg Config, in io.Reader, out io.Writer) *App {
	if cfg.CountryCode == "" {
		cfg.CountryCode = signup.DefaultCountryCode
	}
	return &App{
		cfg: cfg,
		in:  bufio.NewReader(in),
		out: out,
		nav: navigation.NewHistory(navigation.SignUp),
	}
}

// Route returns the current screen.
func (a *App) Route() navigation.Route {
	return a.nav.Current()
}

// Run shows screens until the user quits, signs out or input ends.
func (a *App) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch a.nav.Current() {
		case navigation.SignUp:
			err = a.signUp(ctx)
		case navigation.SignIn:
			a.printf("\nYou are signed out. Verify your phone number to continue.\n")
			a.nav.Navigate(ctx, navigation.SignUp)
		case navigation.Dashboard:
			err = a.dashboard(ctx)
		case navigation.Landing:
			a.printf("\nSigned out. See you next time.\n")
			return nil
		default:
			return fmt.Errorf("unknown route %q", a.nav.Current())
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) signUp(ctx context.Context) error {
	flow := signup.New(signup.Config{
		Identity:    a.cfg.Identity,
		Widgets:     a.cfg.Widgets,
		Profiles:    a.cfg.Profiles,
		Navigator:   a.nav,
		CountryCode: a.cfg.CountryCode,
	})
	defer func() { _ = flow.Close() }()

	a.printf("Sign up for carpool\n")
	var form signup.ProfileForm
	for a.nav.Current() == navigation.SignUp {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := flow.View()
		if v.Message != "" {
			a.printf("! %s\n", v.Message)
		}

		switch v.Step {
		case signup.StepPhone:
			phone, err := a.prompt(fmt.Sprintf("Phone number (without + uses %s): ", a.cfg.CountryCode))
			if err != nil {
				return err
			}
			_ = flow.SubmitPhone(ctx, phone)
		case signup.StepCode:
			code, err := a.prompt(fmt.Sprintf("Code sent to %s (blank to change number): ", v.Phone))
			if err != nil {
				return err
			}
			if code == "" {
				_ = flow.ChangeNumber()
				continue
			}
			_ = flow.SubmitCode(ctx, code)
		case signup.StepProfile:
			a.printf("Tell us about you (* required, blank keeps the current value)\n")
			if err := a.fillForm(&form); err != nil {
				return err
			}
			err := form.Submit(ctx, flow.SubmitProfile)
			if errors.Is(err, signup.ErrRequired) {
				a.printf("! %s\n", err)
			}
		}
	}
	return nil
}

func (a *App) fillForm(form *signup.ProfileForm) error {
	for _, field := range signup.Fields {
		current, _ := form.Data().Get(field)
		label := string(field)
		if field.Required() {
			label += " *"
		}
		if current != "" {
			label += " [" + current + "]"
		}
		value, err := a.prompt(label + ": ")
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := form.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) dashboard(ctx context.Context) error {
	c := dashboard.New(dashboard.Config{
		Identity:  a.cfg.Identity,
		Profiles:  a.cfg.Profiles,
		Navigator: a.nav,
	})
	c.Mount(ctx)
	defer c.Unmount()

	for a.nav.Current() == navigation.Dashboard {
		v := c.View()
		switch v.State {
		case dashboard.StateLoading:
			a.printf("\nLoading your profile...\n")
		case dashboard.StateError:
			a.printf("\n! %s\n", v.Message)
		case dashboard.StateReady:
			a.renderProfile(v.Profile)
		}

		choice, err := a.prompt("[r]efresh, [s]ign out, [q]uit: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(choice) {
		case "r", "retry", "refresh":
			c.Retry(ctx)
		case "s", "signout", "sign out":
			if err := c.SignOut(ctx); err != nil {
				a.printf("! %s\n", err)
			}
		case "q", "quit":
			return errQuit
		}
	}
	return nil
}

func (a *App) renderProfile(p *dashboard.UserProfile) {
	a.printf("\nYour carpool profile\n")
	rows := []struct{ label, value string }{
		{"Name", p.Name},
		{"Phone", p.Phone},
		{"Email", p.Email},
		{"Address", p.Address},
		{"Vehicle", p.Vehicle},
		{"Kids", p.Kids},
	}
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = "-"
		}
		a.printf("  %-8s %s\n", r.label+":", value)
	}
}

func (a *App) prompt(label string) (string, error) {
	a.printf("%s", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
