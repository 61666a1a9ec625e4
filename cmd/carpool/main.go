// Command carpool signs a parent up for carpooling from the terminal: phone
// verification, profile entry, then the profile dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/janisto/carpool-signup/internal/client/profileapi"
	"github.com/janisto/carpool-signup/internal/platform/botcheck"
	"github.com/janisto/carpool-signup/internal/platform/config"
	"github.com/janisto/carpool-signup/internal/platform/identity"
	applog "github.com/janisto/carpool-signup/internal/platform/logging"
	"github.com/janisto/carpool-signup/internal/terminal"
)

// Logs share the terminal with prompts, so keep them off stdout.
func init() {
	applog.SetOutput("stderr")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	_ = applog.Sync()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type options struct {
	envFile     string
	apiURL      string
	countryCode string
	cbor        bool
	cborSet     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("carpool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.envFile, "env", ".env", "Env file to read before the environment")
	fs.StringVar(&opts.apiURL, "api", "", "Override profile API base URL (e.g. https://api.example.com)")
	fs.StringVar(&opts.countryCode, "country", "", "Country code for numbers without a leading +")
	fs.BoolVar(&opts.cbor, "cbor", false, "Talk CBOR to the profile API")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "cbor" {
			opts.cborSet = true
		}
	})
	return opts, nil
}

func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.LoadFile(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.ProfileAPIURL = opts.apiURL
	}
	if opts.countryCode != "" {
		if err := config.ValidateCountryCode(opts.countryCode); err != nil {
			return nil, fmt.Errorf("-country: %w", err)
		}
		cfg.DefaultCountryCode = opts.countryCode
	}
	if opts.cborSet {
		cfg.ProfileAPICBOR = opts.cbor
	}
	if cfg.APIKey == "" && !cfg.UsesAuthEmulator() {
		return nil, fmt.Errorf("%w: FIREBASE_API_KEY is required unless FIREBASE_AUTH_EMULATOR_HOST is set",
			config.ErrInvalid)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var idOpts []identity.Option
	apiKey := cfg.APIKey
	if cfg.UsesAuthEmulator() {
		idOpts = append(idOpts, identity.WithEmulator(cfg.AuthEmulatorHost))
		if apiKey == "" {
			apiKey = "fake-api-key"
		}
	}
	provider := identity.NewToolkitClient(httpClient, apiKey, idOpts...)

	profiles := profileapi.NewClient(httpClient,
		profileapi.WithBaseURL(cfg.ProfileAPIURL),
		profileapi.WithCBOR(cfg.ProfileAPICBOR),
	)

	applog.LogInfo(ctx, "carpool client starting",
		zap.String("profileAPI", cfg.ProfileAPIURL),
		zap.Bool("authEmulator", cfg.UsesAuthEmulator()),
		zap.Bool("cbor", cfg.ProfileAPICBOR),
	)

	app := terminal.New(terminal.Config{
		Identity:    provider,
		Widgets:     botcheck.NewStatic(cfg.BotCheckToken),
		Profiles:    profiles,
		CountryCode: cfg.DefaultCountryCode,
	}, in, out)
	return app.Run(ctx)
}
