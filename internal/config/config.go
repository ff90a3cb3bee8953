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

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultTemplatesDir = "templates"
	defaultPublicDir    = "public"
	defaultContentDir   = "content"
	defaultDataDir      = "data"
	defaultRedisTTL     = 10 * time.Minute
	defaultFallbackLang = "en"
	defaultEnvironment  = "local"
	defaultLogLevel     = "info"
)

// DefaultPeople is the manifest of family members shipped with the site.
var DefaultPeople = []string{"elisabeth", "stefan", "rolf", "samret", "sky"}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Data        DataConfig
	Redis       RedisConfig
	Session     SessionConfig
	I18n        I18nConfig
}

// ServerConfig configures the HTTP server and its on-disk assets.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	DevMode      bool
	PublicURL    string
	TemplatesDir string
	PublicDir    string
	ContentDir   string
}

// DataConfig selects where person, shared, tile and translation documents come from.
// Only one backend is used: GCSBucket if set, else BaseURL, else Dir.
type DataConfig struct {
	Dir        string
	BaseURL    string
	GCSBucket  string
	GCSPrefix  string
	People     []string
	StrictRefs bool
}

// RedisConfig enables the optional shared document cache.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// SessionConfig controls the signed language cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// I18nConfig controls language detection.
type I18nConfig struct {
	Fallback string
}

// SourceKind reports which document source the data config selects.
func (d DataConfig) SourceKind() string {
	switch {
	case d.GCSBucket != "":
		return "gcs"
	case d.BaseURL != "":
		return "http"
	default:
		return "dir"
	}
}

// ValidationError is returned when configuration fields are missing or invalid.
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

// Load assembles the configuration by combining defaults, .env overrides,
// environment variables and explicit values.
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

	// Cloud Run injects PORT; the app specific key wins when both are set.
	port := stringWithDefault(lookup, "PORT", defaultPort)
	port = stringWithDefault(lookup, "MUELLER_WEB_PORT", port)

	env := strings.ToLower(stringWithDefault(lookup, "MUELLER_ENV", defaultEnvironment))

	cfg := Config{
		Environment: env,
		LogLevel:    strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  durationWithDefault(lookup, "MUELLER_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "MUELLER_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "MUELLER_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			DevMode:      boolWithDefault(lookup, "MUELLER_WEB_DEV", false),
			PublicURL:    strings.TrimRight(stringWithDefault(lookup, "MUELLER_WEB_PUBLIC_URL", ""), "/"),
			TemplatesDir: stringWithDefault(lookup, "MUELLER_WEB_TEMPLATES", defaultTemplatesDir),
			PublicDir:    stringWithDefault(lookup, "MUELLER_WEB_PUBLIC", defaultPublicDir),
			ContentDir:   stringWithDefault(lookup, "MUELLER_WEB_CONTENT", defaultContentDir),
		},
		Data: DataConfig{
			Dir:        stringWithDefault(lookup, "MUELLER_DATA_DIR", defaultDataDir),
			BaseURL:    strings.TrimRight(stringWithDefault(lookup, "MUELLER_DATA_URL", ""), "/"),
			GCSBucket:  stringWithDefault(lookup, "MUELLER_DATA_GCS_BUCKET", ""),
			GCSPrefix:  strings.Trim(stringWithDefault(lookup, "MUELLER_DATA_GCS_PREFIX", ""), "/"),
			People:     csvWithDefault(lookup, "MUELLER_DATA_PEOPLE", DefaultPeople),
			StrictRefs: boolWithDefault(lookup, "MUELLER_DATA_STRICT_REFS", false),
		},
		Redis: RedisConfig{
			URL: stringWithDefault(lookup, "MUELLER_REDIS_URL", ""),
			TTL: durationWithDefault(lookup, "MUELLER_REDIS_TTL", defaultRedisTTL),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "MUELLER_SESSION_SIGNING_KEY", ""),
			Secure:     env == "prod",
		},
		I18n: I18nConfig{
			Fallback: strings.ToLower(stringWithDefault(lookup, "MUELLER_I18N_FALLBACK", defaultFallbackLang)),
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
	} else if n, err := strconv.Atoi(cfg.Server.Port); err != nil || n <= 0 || n > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if cfg.Server.PublicURL != "" && !isAbsoluteURL(cfg.Server.PublicURL) {
		missing = append(missing, "Server.PublicURL")
	}
	if cfg.Data.SourceKind() == "dir" && strings.TrimSpace(cfg.Data.Dir) == "" {
		missing = append(missing, "Data.Dir")
	}
	if cfg.Data.BaseURL != "" && !isAbsoluteURL(cfg.Data.BaseURL) {
		missing = append(missing, "Data.BaseURL")
	}
	if len(cfg.Data.People) == 0 {
		missing = append(missing, "Data.People")
	}
	if cfg.Redis.URL != "" && cfg.Redis.TTL <= 0 {
		missing = append(missing, "Redis.TTL")
	}
	if cfg.Environment == "prod" && cfg.Session.SigningKey == "" {
		missing = append(missing, "Session.SigningKey")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		missing = append(missing, "LogLevel")
	}
	if cfg.I18n.Fallback == "" {
		missing = append(missing, "I18n.Fallback")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
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
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
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
