// Package config loads the settings of the monzo programs from the
// environment and an optional .env file
package config

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/pkg/monzo"
)

// DefaultEnvFile is read when Load is given no file
const DefaultEnvFile = ".env"

// Config contains the settings of the CLI and the webhook service
type Config struct {
	Monzo      MonzoConfig
	Webhook    WebhookConfig
	Database   DatabaseConfig
	Log        LogConfig
	ListenAddr string
}

// MonzoConfig holds the OAuth client and the stored session
type MonzoConfig struct {
	ClientID        string
	OwnerID         string
	ClientSecret    string
	AccessToken     string
	RefreshToken    string
	RedirectURI     string
	BaseURL         string
	CallbackTimeout time.Duration
}

// WebhookConfig holds the webhook receiver settings
type WebhookConfig struct {
	URL     string   // Public URL registered with Monzo
	Secret  string   // HMAC secret, signature checks are off when empty
	Domains []string // Hosts the receiver answers on, "*" for any
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// LogConfig selects the log level and format
type LogConfig struct {
	Level  string
	Format string
}

// Load reads the configuration. Values already present in the environment
// win over the ones in the env files. A missing default .env file is not an
// error; a missing file named explicitly is.
func Load(files ...string) (*Config, error) {
	fileValues := map[string]string{}

	explicit := len(files) > 0
	if !explicit {
		files = []string{DefaultEnvFile}
	}

	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Wrap(err, "failed to read env file %s", file)
		}
		for k, v := range values {
			if _, ok := fileValues[k]; !ok {
				fileValues[k] = v
			}
		}
	}

	env := func(key, fallback string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v, ok := fileValues[key]; ok && v != "" {
			return v
		}
		return fallback
	}

	callbackTimeout := monzo.DefaultCallbackTimeout
	if raw := env("MONZO_CALLBACK_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, "MONZO_CALLBACK_TIMEOUT %q", raw)
		}
		callbackTimeout = d
	}

	cfg := &Config{
		Monzo: MonzoConfig{
			ClientID:        env("MONZO_CLIENT_ID", ""),
			OwnerID:         env("MONZO_OWNER_ID", ""),
			ClientSecret:    env("MONZO_CLIENT_SECRET", ""),
			AccessToken:     env("MONZO_ACCESS_TOKEN", ""),
			RefreshToken:    env("MONZO_REFRESH_TOKEN", ""),
			RedirectURI:     env("MONZO_REDIRECT_URI", monzo.DefaultRedirectURI),
			BaseURL:         env("MONZO_BASE_URL", monzo.DefaultBaseURL),
			CallbackTimeout: callbackTimeout,
		},
		Webhook: WebhookConfig{
			URL:     env("MONZO_WEBHOOK_URL", ""),
			Secret:  env("MONZO_WEBHOOK_SECRET", ""),
			Domains: splitList(env("MONZO_WEBHOOK_DOMAINS", "*")),
		},
		Database: DatabaseConfig{
			User:     env("DB_USER", ""),
			Password: env("DB_PASSWORD", ""),
			Host:     env("DB_HOST", ""),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", ""),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
		ListenAddr: env("LISTEN_ADDR", ":8080"),
	}

	return cfg, nil
}

// Credentials returns the OAuth client credentials
func (c MonzoConfig) Credentials() monzo.Credentials {
	return monzo.Credentials{
		ClientID:     c.ClientID,
		OwnerID:      c.OwnerID,
		ClientSecret: c.ClientSecret,
	}
}

// Session returns the stored tokens
func (c MonzoConfig) Session() monzo.Session {
	return monzo.Session{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}
}

// Options returns the client options matching the configuration
func (c MonzoConfig) Options() []monzo.Option {
	return []monzo.Option{
		monzo.WithBaseURL(c.BaseURL),
		monzo.WithRedirectURI(c.RedirectURI),
		monzo.WithCallbackTimeout(c.CallbackTimeout),
		monzo.WithSession(c.Session()),
	}
}

// Enabled reports whether a database has been configured
func (c DatabaseConfig) Enabled() bool {
	return c.Host != "" && c.Name != ""
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
