package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API         APIConfig         `yaml:"api"`
	Storage     StorageConfig     `yaml:"storage"`
	Persistence PersistenceConfig `yaml:"persistence"`
	OAuth       OAuthConfig       `yaml:"oauth"`
	Events      EventsConfig      `yaml:"events"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  int           `yaml:"rate_limit"` // requests per window; 0 disables
	RateWindow time.Duration `yaml:"rate_window"`
	MaxWait    time.Duration `yaml:"max_wait"` // longest a request waits for a token
}

type StorageConfig struct {
	Dir        string `yaml:"dir"`
	Passphrase string `yaml:"passphrase"` // seals the session token at rest when set
}

// PersistenceConfig selects what happens when the backend is unreachable:
// "strict" fails every call, "degraded" serves posts from local storage.
type PersistenceConfig struct {
	Policy string `yaml:"policy"`
}

type OAuthConfig struct {
	RedirectBase string        `yaml:"redirect_base"`
	ListenAddr   string        `yaml:"listen_addr"` // default: host:port of redirect_base
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ScreenWidth  int           `yaml:"screen_width"`
	ScreenHeight int           `yaml:"screen_height"`

	FacebookClientID string `yaml:"facebook_client_id"` // also used for Instagram
	TwitterClientID  string `yaml:"twitter_client_id"`
	LinkedInClientID string `yaml:"linkedin_client_id"`
	GoogleClientID   string `yaml:"google_client_id"` // YouTube
}

type EventsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // serve /metrics on the callback listener
}

const (
	PolicyStrict   = "strict"
	PolicyDegraded = "degraded"
)

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:5000",
			Timeout:    30 * time.Second,
			RateLimit:  120,
			RateWindow: time.Minute,
			MaxWait:    5 * time.Second,
		},
		Storage: StorageConfig{
			Dir: defaultStorageDir(),
		},
		Persistence: PersistenceConfig{
			Policy: PolicyDegraded,
		},
		OAuth: OAuthConfig{
			RedirectBase: "http://127.0.0.1:8789",
			Timeout:      5 * time.Minute,
			PollInterval: time.Second,
			ScreenWidth:  1920,
			ScreenHeight: 1080,
		},
		Events: EventsConfig{
			Enabled:       true,
			BatchSize:     50,
			FlushInterval: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "socialsync")
	}
	return ".socialsync"
}

func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOCIALSYNC_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SOCIALSYNC_STATE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("SOCIALSYNC_PASSPHRASE"); v != "" {
		cfg.Storage.Passphrase = v
	}
	if v := os.Getenv("SOCIALSYNC_POLICY"); v != "" {
		cfg.Persistence.Policy = v
	}
	if v := os.Getenv("SOCIALSYNC_REDIRECT_BASE"); v != "" {
		cfg.OAuth.RedirectBase = v
	}
	if v := os.Getenv("SOCIALSYNC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SOCIALSYNC_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.RateLimit = n
		}
	}
	if v := os.Getenv("SOCIALSYNC_FACEBOOK_CLIENT_ID"); v != "" {
		cfg.OAuth.FacebookClientID = v
	}
	if v := os.Getenv("SOCIALSYNC_TWITTER_CLIENT_ID"); v != "" {
		cfg.OAuth.TwitterClientID = v
	}
	if v := os.Getenv("SOCIALSYNC_LINKEDIN_CLIENT_ID"); v != "" {
		cfg.OAuth.LinkedInClientID = v
	}
	if v := os.Getenv("SOCIALSYNC_GOOGLE_CLIENT_ID"); v != "" {
		cfg.OAuth.GoogleClientID = v
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if err := validURL(c.API.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.API.RateLimit > 0 && c.API.RateWindow <= 0 {
		errs = append(errs, errors.New("api.rate_window must be positive"))
	}
	if c.API.MaxWait < 0 {
		errs = append(errs, errors.New("api.max_wait must not be negative"))
	}
	if c.Storage.Dir == "" {
		errs = append(errs, errors.New("storage.dir is required"))
	}
	switch c.Persistence.Policy {
	case PolicyStrict, PolicyDegraded:
	default:
		errs = append(errs, fmt.Errorf("persistence.policy %q must be %q or %q", c.Persistence.Policy, PolicyStrict, PolicyDegraded))
	}
	if err := validURL(c.OAuth.RedirectBase); err != nil {
		errs = append(errs, fmt.Errorf("oauth.redirect_base: %w", err))
	}
	if c.OAuth.Timeout <= 0 {
		errs = append(errs, errors.New("oauth.timeout must be positive"))
	}
	if c.OAuth.PollInterval <= 0 {
		errs = append(errs, errors.New("oauth.poll_interval must be positive"))
	}
	if c.OAuth.ScreenWidth <= 0 || c.OAuth.ScreenHeight <= 0 {
		errs = append(errs, errors.New("oauth screen size must be positive"))
	}
	if c.Events.BatchSize <= 0 {
		errs = append(errs, errors.New("events.batch_size must be positive"))
	}
	if c.Events.FlushInterval <= 0 {
		errs = append(errs, errors.New("events.flush_interval must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}

// APIBase returns the backend base URL without a trailing slash.
func (c *Config) APIBase() string {
	return strings.TrimRight(c.API.BaseURL, "/")
}

// CallbackAddr returns the address the OAuth callback listener binds.
func (c *Config) CallbackAddr() string {
	if c.OAuth.ListenAddr != "" {
		return c.OAuth.ListenAddr
	}
	u, err := url.Parse(c.OAuth.RedirectBase)
	if err != nil || u.Host == "" {
		return "127.0.0.1:8789"
	}
	if u.Port() == "" {
		return u.Hostname() + ":80"
	}
	return u.Host
}
