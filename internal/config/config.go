package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Site     SiteConfig     `mapstructure:"site"`
	Security SecurityConfig `mapstructure:"security"`
	Email    EmailConfig    `mapstructure:"email"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr              string `mapstructure:"addr"`
	Env               string `mapstructure:"env"`
	SlowRequestMillis int    `mapstructure:"slow_request_ms"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path            string `mapstructure:"path"`
	SlowQueryMillis int    `mapstructure:"slow_query_ms"`
}

// PathsConfig locates the files served or read at runtime.
type PathsConfig struct {
	Static    string `mapstructure:"static"`
	Templates string `mapstructure:"templates"` // "" uses the embedded templates
	Data      string `mapstructure:"data"`
}

// SiteConfig holds presentation settings.
type SiteConfig struct {
	Timezone        string `mapstructure:"timezone"`
	DefaultLocation string `mapstructure:"default_location"`
	BaseURL         string `mapstructure:"base_url"`
}

// SecurityConfig holds CSRF and rate limiting settings.
type SecurityConfig struct {
	CSRFKey          string        `mapstructure:"csrf_key"`
	TrustedOrigins   []string      `mapstructure:"trusted_origins"`
	RateLimitPerMin  int           `mapstructure:"rate_limit_per_min"`
	SecureCookies    bool          `mapstructure:"secure_cookies"`
	VisitorCookieTTL time.Duration `mapstructure:"visitor_cookie_ttl"`
}

// EmailConfig holds Resend settings. An empty API key selects the no-op sender.
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	ReplyTo      string `mapstructure:"reply_to"`
	PartnerInbox string `mapstructure:"partner_inbox"`
}

// OutboxConfig holds delivery worker settings.
type OutboxConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BaseDelay time.Duration `mapstructure:"base_delay"`
	MaxDelay  time.Duration `mapstructure:"max_delay"`
	BatchSize int           `mapstructure:"batch_size"`
}

// Load reads configuration from an optional TOML file and the environment.
// The file path comes from VOLUNTRIP_CONFIG; env overrides use prefix VOLUNTRIP_
// (server.addr is VOLUNTRIP_SERVER_ADDR).
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.env", EnvDevelopment)
	v.SetDefault("server.slow_request_ms", 200)
	v.SetDefault("database.path", "voluntrip.db")
	v.SetDefault("database.slow_query_ms", 100)
	v.SetDefault("paths.static", "static")
	v.SetDefault("paths.templates", "")
	v.SetDefault("paths.data", "data")
	v.SetDefault("site.timezone", "Europe/Lisbon")
	v.SetDefault("site.default_location", "Lisbon")
	v.SetDefault("site.base_url", "http://localhost:8080")
	v.SetDefault("security.csrf_key", "")
	v.SetDefault("security.trusted_origins", []string{})
	v.SetDefault("security.rate_limit_per_min", 120)
	v.SetDefault("security.secure_cookies", false)
	v.SetDefault("security.visitor_cookie_ttl", "8760h")
	v.SetDefault("email.resend_api_key", "")
	v.SetDefault("email.from", "Voluntrip <hello@voluntrip.pt>")
	v.SetDefault("email.reply_to", "")
	v.SetDefault("email.partner_inbox", "partners@voluntrip.pt")
	v.SetDefault("outbox.interval", "30s")
	v.SetDefault("outbox.base_delay", "30s")
	v.SetDefault("outbox.max_delay", "1h")
	v.SetDefault("outbox.batch_size", 10)

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("VOLUNTRIP_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("voluntrip")
	}

	v.SetEnvPrefix("VOLUNTRIP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && os.Getenv("VOLUNTRIP_CONFIG") != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		return fmt.Errorf("site.timezone %q: %w", c.Site.Timezone, err)
	}
	if c.Security.RateLimitPerMin <= 0 {
		return fmt.Errorf("security.rate_limit_per_min must be positive, got %d", c.Security.RateLimitPerMin)
	}
	if c.Outbox.Interval <= 0 {
		return fmt.Errorf("outbox.interval must be positive, got %s", c.Outbox.Interval)
	}
	if c.IsProduction() && len(c.Security.CSRFKey) < 32 {
		return fmt.Errorf("security.csrf_key must be at least 32 bytes in production")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// Location returns the site timezone.
// PRE: c has passed Validate
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlowRequest is the threshold above which a request is logged at WARN.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.Server.SlowRequestMillis) * time.Millisecond
}
