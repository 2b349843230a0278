package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultBrandName     = "مجموعة الصافي"
	defaultBrandNameEn   = "Safi Group"
	defaultWhatsAppPhone = "966555862272"

	defaultAirtableBaseURL  = "https://api.airtable.com/v0"
	defaultAirtableCacheTTL = 5 * time.Minute

	defaultBriefAttempts     = 2
	defaultBriefWindow       = 120 * time.Second
	defaultCheckoutAttempts  = 3
	defaultCheckoutWindow    = 60 * time.Second
	defaultStatePath         = "data/state.json"
	defaultCacheVersion      = "v4"
	defaultAssetsDir         = "public"
	defaultBriefFreshnessTTL = 7 * 24 * time.Hour
)

// Core assets precached at startup when the offline cache is enabled.
var defaultCoreAssets = []string{
	"/",
	"/index.html",
	"/css/style.css",
	"/js/app.js",
	"/manifest.json",
	"/assets/icons/icon-192.webp",
	"/assets/icons/icon-512.webp",
	"/assets/logo.webp",
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Site       SiteConfig
	Airtable   AirtableConfig
	RateLimits RateLimitConfig
	Storage    StorageConfig
	Cache      CacheConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SiteConfig carries the brand identity used in outbound messages.
type SiteConfig struct {
	BrandName   string
	BrandNameEn string
	// WhatsAppPhone is the business number in international digits, no "+".
	WhatsAppPhone string
}

// AirtableConfig holds remote catalog source credentials. An empty Token
// disables the remote source entirely.
type AirtableConfig struct {
	BaseURL  string
	Token    string
	BaseID   string
	TableID  string
	CacheTTL time.Duration
}

// Enabled reports whether the remote catalog source should be constructed.
func (c AirtableConfig) Enabled() bool {
	return strings.TrimSpace(c.Token) != "" &&
		strings.TrimSpace(c.BaseID) != "" &&
		strings.TrimSpace(c.TableID) != ""
}

// RateLimitConfig controls submission throttling.
type RateLimitConfig struct {
	BriefAttempts    int
	BriefWindow      time.Duration
	CheckoutAttempts int
	CheckoutWindow   time.Duration
}

// StorageConfig locates the session state file.
type StorageConfig struct {
	StatePath      string
	BriefFreshness time.Duration
}

// CacheConfig controls the offline asset cache.
type CacheConfig struct {
	Enabled    bool
	Version    string
	AssetsDir  string
	CoreAssets []string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SAFI_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SAFI_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SAFI_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SAFI_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Site: SiteConfig{
			BrandName:     stringWithDefault(lookup, "SAFI_SITE_BRAND_NAME", defaultBrandName),
			BrandNameEn:   stringWithDefault(lookup, "SAFI_SITE_BRAND_NAME_EN", defaultBrandNameEn),
			WhatsAppPhone: stringWithDefault(lookup, "SAFI_SITE_WHATSAPP_PHONE", defaultWhatsAppPhone),
		},
		Airtable: AirtableConfig{
			BaseURL:  stringWithDefault(lookup, "SAFI_AIRTABLE_BASE_URL", defaultAirtableBaseURL),
			Token:    stringWithDefault(lookup, "SAFI_AIRTABLE_TOKEN", ""),
			BaseID:   stringWithDefault(lookup, "SAFI_AIRTABLE_BASE_ID", ""),
			TableID:  stringWithDefault(lookup, "SAFI_AIRTABLE_TABLE_ID", ""),
			CacheTTL: durationWithDefault(lookup, "SAFI_AIRTABLE_CACHE_TTL", defaultAirtableCacheTTL),
		},
		RateLimits: RateLimitConfig{
			BriefAttempts:    intWithDefault(lookup, "SAFI_RATELIMIT_BRIEF_ATTEMPTS", defaultBriefAttempts),
			BriefWindow:      durationWithDefault(lookup, "SAFI_RATELIMIT_BRIEF_WINDOW", defaultBriefWindow),
			CheckoutAttempts: intWithDefault(lookup, "SAFI_RATELIMIT_CHECKOUT_ATTEMPTS", defaultCheckoutAttempts),
			CheckoutWindow:   durationWithDefault(lookup, "SAFI_RATELIMIT_CHECKOUT_WINDOW", defaultCheckoutWindow),
		},
		Storage: StorageConfig{
			StatePath:      stringWithDefault(lookup, "SAFI_STORAGE_STATE_PATH", defaultStatePath),
			BriefFreshness: durationWithDefault(lookup, "SAFI_STORAGE_BRIEF_FRESHNESS", defaultBriefFreshnessTTL),
		},
		Cache: CacheConfig{
			Enabled:    boolWithDefault(lookup, "SAFI_CACHE_ENABLED", true),
			Version:    stringWithDefault(lookup, "SAFI_CACHE_VERSION", defaultCacheVersion),
			AssetsDir:  stringWithDefault(lookup, "SAFI_CACHE_ASSETS_DIR", defaultAssetsDir),
			CoreAssets: csvWithDefault(lookup, "SAFI_CACHE_CORE_ASSETS", defaultCoreAssets),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Site.BrandName) == "" {
		missing = append(missing, "Site.BrandName")
	}
	if !isPhoneDigits(cfg.Site.WhatsAppPhone) {
		missing = append(missing, "Site.WhatsAppPhone")
	}
	if cfg.RateLimits.BriefAttempts <= 0 || cfg.RateLimits.BriefWindow <= 0 {
		missing = append(missing, "RateLimits.Brief")
	}
	if cfg.RateLimits.CheckoutAttempts <= 0 || cfg.RateLimits.CheckoutWindow <= 0 {
		missing = append(missing, "RateLimits.Checkout")
	}
	if strings.TrimSpace(cfg.Storage.StatePath) == "" {
		missing = append(missing, "Storage.StatePath")
	}
	if cfg.Storage.BriefFreshness <= 0 {
		missing = append(missing, "Storage.BriefFreshness")
	}
	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Version) == "" {
		missing = append(missing, "Cache.Version")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func isPhoneDigits(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) < 10 || len(value) > 15 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
