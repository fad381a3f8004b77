package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	yaml "go.yaml.in/yaml/v3"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/store"
)

// Config is the merged configuration of every taskcal command.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Reminders RemindersConfig `yaml:"reminders"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Google    GoogleConfig    `yaml:"google"`
}

// ServerConfig configures the API listener.
type ServerConfig struct {
	Addr        string  `yaml:"addr"`
	TLSCertFile string  `yaml:"tls_cert_file"`
	TLSKeyFile  string  `yaml:"tls_key_file"`
	RateLimit   float64 `yaml:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst"`
	TrustProxy  bool    `yaml:"trust_proxy"`

	// MCP mounts the MCP streamable HTTP endpoint at /mcp.
	MCP      bool `yaml:"mcp"`
	ReadOnly bool `yaml:"read_only"`

	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path        string   `yaml:"path"`
	BusyTimeout Duration `yaml:"busy_timeout"`
}

// AuthConfig configures bearer tokens and password hashing.
type AuthConfig struct {
	JWTSecret  string   `yaml:"jwt_secret"`
	Issuer     string   `yaml:"issuer"`
	TokenTTL   Duration `yaml:"token_ttl"`
	BcryptCost int      `yaml:"bcrypt_cost"`
}

// RemindersConfig configures the due-date reminder job.
type RemindersConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	// Timezone is an IANA name; empty means the local zone.
	Timezone string `yaml:"timezone"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GoogleConfig holds the OAuth client used by the Google Tasks import.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            server.DefaultAPIAddr,
			RateLimit:       server.DefaultRateLimit,
			RateBurst:       server.DefaultRateBurst,
			ShutdownTimeout: Duration(server.DefaultShutdownTimeout),
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(DataDir(), "taskcal.db"),
			BusyTimeout: Duration(store.DefaultBusyTimeout),
		},
		Auth: AuthConfig{
			Issuer:   auth.DefaultIssuer,
			TokenTTL: Duration(auth.DefaultTokenTTL),
		},
		Reminders: RemindersConfig{
			Enabled:  true,
			Schedule: notify.DefaultReminderSchedule,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: server.DefaultMetricsAddr,
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path (optional)
// and the environment. envFile names a dotenv file to load first; when
// empty, ./.env is loaded if it exists. Variables already set in the
// environment win over the dotenv file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadDotenv(envFile); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadDotenv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return nil
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("TASKCAL_ADDR", &c.Server.Addr)
	e.str("TLS_CERT_FILE", &c.Server.TLSCertFile)
	e.str("TLS_KEY_FILE", &c.Server.TLSKeyFile)
	e.float("TASKCAL_RATE_LIMIT", &c.Server.RateLimit)
	e.int("TASKCAL_RATE_BURST", &c.Server.RateBurst)
	e.bool("TASKCAL_TRUST_PROXY", &c.Server.TrustProxy)
	e.bool("TASKCAL_MCP_HTTP", &c.Server.MCP)
	e.bool("TASKCAL_READ_ONLY", &c.Server.ReadOnly)
	e.duration("TASKCAL_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	e.str("TASKCAL_DB", &c.Database.Path)
	e.duration("TASKCAL_DB_BUSY_TIMEOUT", &c.Database.BusyTimeout)

	e.str("TASKCAL_JWT_SECRET", &c.Auth.JWTSecret)
	e.str("TASKCAL_JWT_ISSUER", &c.Auth.Issuer)
	e.duration("TASKCAL_TOKEN_TTL", &c.Auth.TokenTTL)
	e.int("TASKCAL_BCRYPT_COST", &c.Auth.BcryptCost)

	e.bool("TASKCAL_REMINDERS_ENABLED", &c.Reminders.Enabled)
	e.str("TASKCAL_REMINDER_SCHEDULE", &c.Reminders.Schedule)
	e.str("TASKCAL_TIMEZONE", &c.Reminders.Timezone)

	e.str("TASKCAL_LOG_LEVEL", &c.Logging.Level)
	e.str("TASKCAL_LOG_FORMAT", &c.Logging.Format)

	e.bool("METRICS_ENABLED", &c.Metrics.Enabled)
	e.str("METRICS_ADDR", &c.Metrics.Addr)

	e.str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	e.str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
			return
		}
		*dst = b
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(key string, dst *Duration) {
	if v, ok := e.get(key); ok {
		d, err := parseDuration(key, v)
		if err != nil {
			e.errs = append(e.errs, err)
			return
		}
		*dst = Duration(d)
	}
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if c.Reminders.Timezone != "" {
		if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("reminders.timezone: %w", err))
		}
	}
	if c.Reminders.Enabled {
		if _, err := cron.ParseStandard(c.Reminders.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("reminders.schedule %q: %w", c.Reminders.Schedule, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateServe additionally checks what the API server needs.
func (c *Config) ValidateServe() error {
	errs := []error{c.Validate()}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (set TASKCAL_JWT_SECRET)"))
	} else if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes", auth.MinSecretLength))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("both TLS certificate and key files must be provided to enable HTTPS"))
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		errs = append(errs, errors.New("server rate limit and burst must not be negative"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == c.Server.Addr {
		errs = append(errs, fmt.Errorf("metrics.addr must differ from server.addr (%s)", c.Server.Addr))
	}
	return errors.Join(errs...)
}

// Location returns the reminder time zone.
func (c *Config) Location() *time.Location {
	if c.Reminders.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DataDir returns the default directory for the database, honouring
// XDG_DATA_HOME.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "taskcal")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "taskcal")
}
