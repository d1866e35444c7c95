// Package config loads shopmall settings.
//
// Precedence, lowest first: DefaultConfig, the YAML or JSON file named by
// SHOPMALL_CONFIG_FILE, a .env file in the working directory, SHOPMALL_*
// environment variables, and finally functional options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/shopmall-mcp/internal/logging"
)

// ErrInvalidConfiguration wraps every configuration failure
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Transport modes
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the full process configuration
type Config struct {
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Transport TransportConfig `json:"transport" yaml:"transport"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Messaging MessagingConfig `json:"messaging" yaml:"messaging"`
	Reports   ReportsConfig   `json:"reports" yaml:"reports"`
}

// StorageConfig locates the SQLite database
type StorageConfig struct {
	Path string `json:"path" yaml:"path"`
}

// RedisConfig points the cart at Redis
type RedisConfig struct {
	URL       string        `json:"url" yaml:"url"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix"`
	CartTTL   time.Duration `json:"cart_ttl" yaml:"cart_ttl"`
}

// TransportConfig selects how callers reach the service
type TransportConfig struct {
	Mode     string `json:"mode" yaml:"mode"`
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	// CORSOrigins lists browser origins allowed to call the HTTP API.
	// Empty disables CORS; "*" allows any origin.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

// AuthConfig holds token signing and registration codes
type AuthConfig struct {
	JWTSecret     string        `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL      time.Duration `json:"token_ttl" yaml:"token_ttl"`
	StaffCode     string        `json:"staff_code" yaml:"staff_code"`
	ExecutiveCode string        `json:"executive_code" yaml:"executive_code"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// MessagingConfig tunes the conversation watcher
type MessagingConfig struct {
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// ReportsConfig sizes the report cache
type ReportsConfig struct {
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// Option mutates a Config after env loading
type Option func(*Config) error

// DefaultDBPath is used when no database path is configured
const DefaultDBPath = "shopmall.db"

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Path: DefaultDBPath},
		Redis: RedisConfig{
			URL:       "redis://localhost:6379/0",
			KeyPrefix: "shopmall",
			CartTTL:   7 * 24 * time.Hour,
		},
		Transport: TransportConfig{
			Mode:     TransportStdio,
			HTTPAddr: ":8080",
		},
		Auth: AuthConfig{
			TokenTTL:      24 * time.Hour,
			StaffCode:     "STAFF_123",
			ExecutiveCode: "CEO_123",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Messaging: MessagingConfig{PollInterval: time.Second},
		Reports:   ReportsConfig{CacheSize: 256},
	}
}

// LoadDotEnv loads a .env file into the process environment. A missing
// file is not an error; existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromEnv overlays SHOPMALL_* environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SHOPMALL_DB_PATH"); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv("SHOPMALL_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("SHOPMALL_REDIS_PREFIX"); v != "" {
		c.Redis.KeyPrefix = v
	}
	if err := envDuration("SHOPMALL_CART_TTL", &c.Redis.CartTTL); err != nil {
		return err
	}

	if v := os.Getenv("SHOPMALL_TRANSPORT"); v != "" {
		c.Transport.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("SHOPMALL_HTTP_ADDR"); v != "" {
		c.Transport.HTTPAddr = v
	}
	if v := os.Getenv("SHOPMALL_CORS_ORIGINS"); v != "" {
		c.Transport.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("SHOPMALL_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if err := envDuration("SHOPMALL_TOKEN_TTL", &c.Auth.TokenTTL); err != nil {
		return err
	}
	if v := os.Getenv("SHOPMALL_STAFF_CODE"); v != "" {
		c.Auth.StaffCode = v
	}
	if v := os.Getenv("SHOPMALL_EXECUTIVE_CODE"); v != "" {
		c.Auth.ExecutiveCode = v
	}

	if v := os.Getenv("SHOPMALL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SHOPMALL_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	if err := envDuration("SHOPMALL_POLL_INTERVAL", &c.Messaging.PollInterval); err != nil {
		return err
	}

	if v := os.Getenv("SHOPMALL_REPORT_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOPMALL_REPORT_CACHE_SIZE=%q: %w", v, ErrInvalidConfiguration)
		}
		c.Reports.CacheSize = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, ErrInvalidConfiguration)
	}
	*dst = d
	return nil
}

// LoadFromFile reads a .yaml, .yml or .json file over the current values
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %v: %w", err, ErrInvalidConfiguration)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %v: %w", err, ErrInvalidConfiguration)
		}
	}
	return nil
}

// Validate checks the final configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("database path is required: %w", ErrInvalidConfiguration)
	}

	switch c.Transport.Mode {
	case TransportStdio:
	case TransportHTTP:
		if c.Transport.HTTPAddr == "" {
			return fmt.Errorf("http address is required for http transport: %w", ErrInvalidConfiguration)
		}
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("jwt secret of at least 16 bytes is required for http transport: %w", ErrInvalidConfiguration)
		}
		for _, origin := range c.Transport.CORSOrigins {
			if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
				return fmt.Errorf("cors origin %q must be * or an http(s) origin: %w", origin, ErrInvalidConfiguration)
			}
		}
	default:
		return fmt.Errorf("unknown transport %q: %w", c.Transport.Mode, ErrInvalidConfiguration)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive: %w", ErrInvalidConfiguration)
	}
	if c.Auth.StaffCode == "" || c.Auth.ExecutiveCode == "" {
		return fmt.Errorf("registration codes must not be empty: %w", ErrInvalidConfiguration)
	}
	if c.Auth.StaffCode == c.Auth.ExecutiveCode {
		return fmt.Errorf("staff and executive codes must differ: %w", ErrInvalidConfiguration)
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("redis url is required: %w", ErrInvalidConfiguration)
	}
	if c.Redis.CartTTL <= 0 {
		return fmt.Errorf("cart ttl must be positive: %w", ErrInvalidConfiguration)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidConfiguration)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q: %w", c.Log.Format, ErrInvalidConfiguration)
	}

	if c.Messaging.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %w", ErrInvalidConfiguration)
	}
	if c.Reports.CacheSize < 0 {
		return fmt.Errorf("report cache size must not be negative: %w", ErrInvalidConfiguration)
	}
	return nil
}

// Functional options

// WithDBPath sets the SQLite database path
func WithDBPath(path string) Option {
	return func(c *Config) error {
		c.Storage.Path = path
		return nil
	}
}

// WithTransport selects stdio or http
func WithTransport(mode string) Option {
	return func(c *Config) error {
		c.Transport.Mode = strings.ToLower(mode)
		return nil
	}
}

// WithHTTPAddr sets the HTTP listen address
func WithHTTPAddr(addr string) Option {
	return func(c *Config) error {
		c.Transport.HTTPAddr = addr
		return nil
	}
}

// WithJWTSecret sets the token signing secret
func WithJWTSecret(secret string) Option {
	return func(c *Config) error {
		c.Auth.JWTSecret = secret
		return nil
	}
}

// WithRedisURL sets the cart Redis URL
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Redis.URL = url
		return nil
	}
}

// WithLogLevel sets the log level
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalidConfiguration)
		}
		c.Log.Level = level
		return nil
	}
}

// WithConfigFile loads a config file. Options apply in order, so later
// options override the file.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// NewConfig builds the configuration: defaults, SHOPMALL_CONFIG_FILE,
// environment, then opts, then validation. Call LoadDotEnv first to pick up
// a .env file.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("SHOPMALL_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
