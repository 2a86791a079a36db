package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	platformstrings "aps-gateway/pkg/platform/strings"
)

// Default upstream endpoints for Autodesk Platform Services.
const (
	DefaultAuthorizeURL = "https://developer.api.autodesk.com/authentication/v2/authorize"
	DefaultTokenURL     = "https://developer.api.autodesk.com/authentication/v2/token"
	DefaultUserInfoURL  = "https://api.userprofile.autodesk.com/userinfo"
	DefaultAPSBaseURL   = "https://developer.api.autodesk.com"
)

// SessionIdleTimeout is the fixed idle window after which a visitor session is evicted.
var SessionIdleTimeout = 60 * time.Minute

// Server captures the full gateway configuration.
type Server struct {
	Addr        string
	Environment string
	APS         APSConfig
	Session     SessionConfig
	Redis       RedisConfig
	Whitelist   WhitelistConfig
	Log         LogConfig
}

// APSConfig holds the OAuth client registration and upstream endpoints.
type APSConfig struct {
	ClientID      string
	ClientSecret  string
	CallbackURL   string
	AuthorizeURL  string
	TokenURL      string
	UserInfoURL   string
	BaseURL       string
	DefaultScopes string
	HTTPTimeout   time.Duration
}

// SessionConfig controls the session cookie and backing store.
type SessionConfig struct {
	Store        string // "memory" or "redis"
	CookieName   string
	CookieSecure bool
	IdleTimeout  time.Duration
}

// RedisConfig is only consulted when Session.Store is "redis".
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WhitelistConfig drives the email whitelist gate.
type WhitelistConfig struct {
	Enabled bool
	Emails  []string
	// Contact is the remediation text shown on the access-denied page.
	Contact string
	File    string
}

// LogConfig selects slog level and handler.
type LogConfig struct {
	Level  string
	Format string
}

// whitelistFile is the YAML shape of WHITELIST_FILE.
type whitelistFile struct {
	Enabled *bool    `yaml:"enabled"`
	Emails  []string `yaml:"emails"`
	Contact string   `yaml:"contact"`
}

// FromEnv builds a Server config from environment variables (after loading an
// optional .env file) so main stays lean.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Server{
		Addr:        envOr("GATEWAY_ADDR", ":8080"),
		Environment: envOr("GATEWAY_ENV", "development"),
		APS: APSConfig{
			ClientID:      os.Getenv("APS_CLIENT_ID"),
			ClientSecret:  os.Getenv("APS_CLIENT_SECRET"),
			CallbackURL:   envOr("APS_CALLBACK_URL", "http://localhost:8080/auth/callback"),
			AuthorizeURL:  envOr("APS_AUTHORIZE_URL", DefaultAuthorizeURL),
			TokenURL:      envOr("APS_TOKEN_URL", DefaultTokenURL),
			UserInfoURL:   envOr("APS_USERINFO_URL", DefaultUserInfoURL),
			BaseURL:       strings.TrimSuffix(envOr("APS_BASE_URL", DefaultAPSBaseURL), "/"),
			DefaultScopes: envOr("APS_DEFAULT_SCOPES", "data:read"),
			HTTPTimeout:   envDuration("APS_HTTP_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Store:        envOr("SESSION_STORE", "memory"),
			CookieName:   envOr("SESSION_COOKIE_NAME", "aps_session"),
			CookieSecure: envBool("SESSION_COOKIE_SECURE", false),
			IdleTimeout:  envDuration("SESSION_IDLE_TIMEOUT", SessionIdleTimeout),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Whitelist: WhitelistConfig{
			Enabled: envBool("WHITELIST_ENABLED", true),
			Emails:  platformstrings.SplitList(os.Getenv("WHITELIST_EMAILS"), ",;"),
			Contact: envOr("WHITELIST_CONTACT", "Contact the application administrator to request access."),
			File:    os.Getenv("WHITELIST_FILE"),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}

	if cfg.Whitelist.File != "" {
		if err := cfg.Whitelist.mergeFile(cfg.Whitelist.File); err != nil {
			return Server{}, err
		}
	}

	return cfg, cfg.Validate()
}

// mergeFile appends the entries of a YAML whitelist file. Keys present in the
// file override the environment for enabled and contact.
func (w *WhitelistConfig) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read whitelist file: %w", err)
	}
	var f whitelistFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse whitelist file %s: %w", path, err)
	}
	if f.Enabled != nil {
		w.Enabled = *f.Enabled
	}
	if f.Contact != "" {
		w.Contact = f.Contact
	}
	w.Emails = platformstrings.DedupeAndTrim(append(w.Emails, f.Emails...))
	return nil
}

// Validate reports configuration that would make the OAuth flow unusable.
// These are startup errors, never runtime ones.
func (s Server) Validate() error {
	var errs []error
	if s.APS.ClientID == "" {
		errs = append(errs, errors.New("APS_CLIENT_ID is required"))
	}
	if s.APS.ClientSecret == "" {
		errs = append(errs, errors.New("APS_CLIENT_SECRET is required"))
	}
	for name, raw := range map[string]string{
		"APS_CALLBACK_URL":  s.APS.CallbackURL,
		"APS_AUTHORIZE_URL": s.APS.AuthorizeURL,
		"APS_TOKEN_URL":     s.APS.TokenURL,
		"APS_USERINFO_URL":  s.APS.UserInfoURL,
		"APS_BASE_URL":      s.APS.BaseURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL", name))
		}
	}
	switch s.Session.Store {
	case "memory":
	case "redis":
		if s.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", s.Session.Store))
	}
	if s.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
