// Package config reads chronoreply's settings from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/joshsymonds/chronoreply/internal/credential"
)

const (
	EnvClientID     = "GMAIL_CLIENT_ID"
	EnvClientSecret = "GMAIL_CLIENT_SECRET"
	EnvAuthURI      = "GMAIL_AUTH_URI"
	EnvTokenURI     = "GMAIL_TOKEN_URI"
	EnvCertURL      = "GMAIL_CERT_URL"
	EnvRedirectURI  = "GMAIL_REDIRECT_URI"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPass     = "SMTP_PASS"

	EnvTokenFile = "CHRONOREPLY_TOKEN_FILE"
	EnvRPS       = "CHRONOREPLY_RPS"
	EnvLogLevel  = "CHRONOREPLY_LOG_LEVEL"

	defaultRPS = 4
)

// Config is built once at startup and passed down explicitly.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURI      string
	TokenURI     string
	CertURL      string // carried for completeness; the OAuth flow does not need it
	RedirectURI  string

	SMTPUser string
	SMTPPass string

	TokenFile string
	RPS       int
	LogLevel  slog.Level
}

// Load reads path as a .env file when it exists and then builds the Config
// from the process environment. Variables already set in the environment win
// over the file.
func Load(path string) (Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, reporting every missing or invalid
// variable at once.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var errs *multierror.Error
	required := func(key string) string {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s is required", key))
		}
		return v
	}

	cfg := Config{
		ClientID:     required(EnvClientID),
		ClientSecret: required(EnvClientSecret),
		AuthURI:      required(EnvAuthURI),
		TokenURI:     required(EnvTokenURI),
		CertURL:      required(EnvCertURL),
		RedirectURI:  required(EnvRedirectURI),
		SMTPUser:     required(EnvSMTPUser),
		SMTPPass:     required(EnvSMTPPass),
		TokenFile:    credential.DefaultTokenFile,
		RPS:          defaultRPS,
		LogLevel:     slog.LevelInfo,
	}

	if v, ok := lookup(EnvTokenFile); ok && strings.TrimSpace(v) != "" {
		cfg.TokenFile = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRPS); ok && strings.TrimSpace(v) != "" {
		rps, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || rps < 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s must be a non-negative integer, got %q", EnvRPS, v))
		} else {
			cfg.RPS = rps
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		} else {
			cfg.LogLevel = lvl
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// OAuth2 returns the client configuration for the Gmail authorization flow.
func (c Config) OAuth2(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       append([]string(nil), scopes...),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURI,
			TokenURL: c.TokenURI,
		},
	}
}
