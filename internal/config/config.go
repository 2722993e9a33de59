// Package config loads the HR admin configuration from an optional YAML
// file and the environment.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	JWT         JWTConfig        `mapstructure:"jwt"`
	Password    PasswordConfig   `mapstructure:"password"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Notify      NotifyConfig     `mapstructure:"notify"`
	Contracts   ContractsConfig  `mapstructure:"contracts"`
	Onboarding  OnboardingConfig `mapstructure:"onboarding"`
	Uploads     UploadsConfig    `mapstructure:"uploads"`
	Log         LogConfig        `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig points at PostgreSQL.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RateLimitConfig selects and sizes the request limiter.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Store           string        `mapstructure:"store"` // memory or redis
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// RedisConfig is used by the redis rate limit store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotifyConfig selects where onboarding notifications go.
type NotifyConfig struct {
	Channel      string  `mapstructure:"channel"` // log or aws
	AWSRegion    string  `mapstructure:"aws_region"`
	FromEmail    string  `mapstructure:"from_email"`
	EmailEnabled bool    `mapstructure:"email_enabled"`
	SMSEnabled   bool    `mapstructure:"sms_enabled"`
	SendRate     float64 `mapstructure:"send_rate"`
}

// ContractsConfig configures contract rendering.
type ContractsConfig struct {
	CompanyName     string        `mapstructure:"company_name"`
	CompanyAddress  string        `mapstructure:"company_address"`
	TemplatePath    string        `mapstructure:"template_path"`
	ProbationMonths int           `mapstructure:"probation_months"`
	NoticeDays      int           `mapstructure:"notice_days"`
	PDFTimeout      time.Duration `mapstructure:"pdf_timeout"`
}

// OnboardingConfig configures the task lifecycle.
type OnboardingConfig struct {
	Transitions    string        `mapstructure:"transitions"` // any or strict
	ReminderWindow time.Duration `mapstructure:"reminder_window"`
}

// UploadsConfig configures CV storage.
type UploadsConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

var defaults = map[string]any{
	"environment":                 "development",
	"server.port":                 8080,
	"server.cors_origin":          "*",
	"server.shutdown_timeout":     "10s",
	"database.url":                "",
	"jwt.secret":                  "",
	"jwt.expiration_hours":        24,
	"password.bcrypt_cost":        12,
	"password.pepper":             "",
	"rate_limit.enabled":          true,
	"rate_limit.store":            "memory",
	"rate_limit.default_limit":    1000,
	"rate_limit.default_window":   "1m",
	"rate_limit.cleanup_interval": "5m",
	"rate_limit.whitelist":        []string{},
	"rate_limit.blacklist":        []string{},
	"redis.addr":                  "localhost:6379",
	"redis.password":              "",
	"redis.db":                    0,
	"notify.channel":              "log",
	"notify.aws_region":           "us-east-1",
	"notify.from_email":           "",
	"notify.email_enabled":        true,
	"notify.sms_enabled":          false,
	"notify.send_rate":            14.0,
	"contracts.company_name":      "",
	"contracts.company_address":   "",
	"contracts.template_path":     "",
	"contracts.probation_months":  3,
	"contracts.notice_days":       30,
	"contracts.pdf_timeout":       "30s",
	"onboarding.transitions":      "any",
	"onboarding.reminder_window":  "48h",
	"uploads.dir":                 "uploads",
	"uploads.max_bytes":           5 << 20,
	"log.level":                   "info",
	"log.json":                    false,
}

// Load reads configuration from configFile (optional; an empty path searches
// for hr_admin.yaml in the working directory) and the environment. Keys map
// to environment variables by upper-casing and replacing "." with "_", so
// jwt.secret is JWT_SECRET.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Older deployments set the bcrypt cost without the section prefix.
	if err := v.BindEnv("password.bcrypt_cost", "PASSWORD_BCRYPT_COST", "BCRYPT_COST"); err != nil {
		return nil, errors.Wrap(err, "bind BCRYPT_COST")
	}
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, errors.Wrap(err, "bind PORT")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("hr_admin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.normalize(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// normalize validates every section and fills derived defaults.
func (c *Config) normalize() error {
	if err := c.JWT.normalize(); err != nil {
		return err
	}
	if err := c.Password.normalize(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server port out of range: %d", c.Server.Port)
	}

	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		return errors.Newf("RATE_LIMIT_STORE must be memory or redis, got: %q", c.RateLimit.Store)
	}
	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 1 || c.RateLimit.DefaultWindow <= 0) {
		return errors.New("rate limit default limit and window must be positive")
	}

	switch c.Notify.Channel {
	case "log":
	case "aws":
		if c.Notify.EmailEnabled && c.Notify.FromEmail == "" {
			return errors.New("NOTIFY_FROM_EMAIL is required when email notifications are enabled")
		}
	default:
		return errors.Newf("NOTIFY_CHANNEL must be log or aws, got: %q", c.Notify.Channel)
	}

	switch c.Onboarding.Transitions {
	case "any", "strict":
	default:
		return errors.Newf("ONBOARDING_TRANSITIONS must be any or strict, got: %q", c.Onboarding.Transitions)
	}

	if c.Contracts.CompanyName == "" {
		c.Contracts.CompanyName = "Company"
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.Newf("UPLOADS_MAX_BYTES must be positive, got: %d", c.Uploads.MaxBytes)
	}
	return nil
}
