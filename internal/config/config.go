// Package config loads dashboard settings from MENTORSHIP_* environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
)

// Config is the process configuration.
type Config struct {
	Addr       string `env:"MENTORSHIP_ADDR"        envDefault:":8080"`
	Env        string `env:"MENTORSHIP_ENV"         envDefault:"development"`
	BackendURL string `env:"MENTORSHIP_BACKEND_URL" envDefault:"http://localhost:8000"`
	DBPath     string `env:"MENTORSHIP_DB_PATH"     envDefault:"mentorship.db"`
	// CSRFKeyHex is 32 bytes, hex encoded. Empty is allowed only in development.
	CSRFKeyHex     string   `env:"MENTORSHIP_CSRF_KEY"`
	SessionKeyHex  string   `env:"MENTORSHIP_SESSION_KEY"`
	TrustedOrigins []string `env:"MENTORSHIP_TRUSTED_ORIGINS" envSeparator:","`

	ResendKey  string `env:"MENTORSHIP_RESEND_KEY"`
	EmailFrom  string `env:"MENTORSHIP_RESEND_FROM" envDefault:"Mentorship Dashboard <noreply@mentorship.local>"`
	EmailReply string `env:"MENTORSHIP_REPLY_TO"`

	RateLimitPerSecond int           `env:"MENTORSHIP_RATE_LIMIT"       envDefault:"10"`
	SlowRequestMs      int           `env:"MENTORSHIP_SLOW_REQUEST_MS"  envDefault:"200"`
	SlowQueryMs        int           `env:"MENTORSHIP_SLOW_QUERY_MS"    envDefault:"50"`
	SessionTTL         time.Duration `env:"MENTORSHIP_SESSION_TTL"      envDefault:"12h"`
	ShutdownTimeout    time.Duration `env:"MENTORSHIP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel           string        `env:"MENTORSHIP_LOG_LEVEL"        envDefault:"info"`
	DefaultLocale      string        `env:"MENTORSHIP_DEFAULT_LOCALE"   envDefault:"en-US"`
	AuditEnabled       bool          `env:"MENTORSHIP_AUDIT"            envDefault:"true"`
	OutboxInterval     time.Duration `env:"MENTORSHIP_OUTBOX_INTERVAL"  envDefault:"1m"`
}

// developmentCSRFKey is used only when MENTORSHIP_ENV=development and no key is set.
var developmentCSRFKey = []byte("mentorship-dev-csrf-key-32-bytes")

// EnvFile is read by Load when present.
const EnvFile = ".env"

// Load parses the environment and validates the result.
// POST: Returns an error naming the first invalid variable
func Load() (Config, error) {
	return LoadFile(EnvFile)
}

// LoadFile is Load with variables missing from the process environment
// taken from the dotenv file at path. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	vars := env.ToMap(os.Environ())
	fileVars, err := godotenv.Read(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// no dotenv file
	case err != nil:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	default:
		for k, v := range fileVars {
			if _, set := vars[k]; !set {
				vars[k] = v
			}
		}
	}
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("MENTORSHIP_BACKEND_URL must be an http(s) URL, got %q", c.BackendURL)
	}
	if _, err := c.CSRFKey(); err != nil {
		return err
	}
	if _, err := c.SessionKey(); err != nil {
		return err
	}
	if _, err := language.Parse(c.DefaultLocale); err != nil {
		return fmt.Errorf("MENTORSHIP_DEFAULT_LOCALE: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("MENTORSHIP_LOG_LEVEL: %w", err)
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("MENTORSHIP_RATE_LIMIT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("MENTORSHIP_SESSION_TTL must be positive")
	}
	if c.OutboxInterval <= 0 {
		return fmt.Errorf("MENTORSHIP_OUTBOX_INTERVAL must be positive")
	}
	return nil
}

// IsProduction reports whether the process runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// CSRFKey decodes the form-token key.
// POST: Returns a 32 byte key; development falls back to a fixed key
func (c Config) CSRFKey() ([]byte, error) {
	if c.CSRFKeyHex == "" {
		if c.Env == "development" {
			return developmentCSRFKey, nil
		}
		return nil, fmt.Errorf("MENTORSHIP_CSRF_KEY is required when MENTORSHIP_ENV=%s", c.Env)
	}
	return decodeKey("MENTORSHIP_CSRF_KEY", c.CSRFKeyHex)
}

// SessionKey decodes the session cookie signing key.
// POST: Returns nil when unset, meaning the CSRF key signs sessions too
func (c Config) SessionKey() ([]byte, error) {
	if c.SessionKeyHex == "" {
		return nil, nil
	}
	return decodeKey("MENTORSHIP_SESSION_KEY", c.SessionKeyHex)
}

func decodeKey(name, value string) ([]byte, error) {
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}

// Language returns the fallback dashboard language.
func (c Config) Language() language.Tag {
	tag, err := language.Parse(c.DefaultLocale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// NewLogger builds the process logger: JSON in production, console otherwise.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("MENTORSHIP_LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
