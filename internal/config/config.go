// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the database, the model API, the upstream catalog, the sync
// schedule, the session cache, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	PublicMaxAge time.Duration // PUBLIC_CACHE_MAX_AGE for anonymous GETs; 0 disables
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "paper-digest")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DatabaseConfig selects and addresses the paper store.
type DatabaseConfig struct {
	Driver   string // DB_DRIVER: postgres|sqlite
	Host     string // POSTGRES_HOST
	Port     int    // POSTGRES_PORT
	User     string // POSTGRES_USER
	Password string // POSTGRES_PASSWORD
	Name     string // POSTGRES_DB
	SSLMode  string // POSTGRES_SSLMODE
	Path     string // DB_PATH (sqlite)
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// LLMConfig configures the chat-completions client.
type LLMConfig struct {
	APIKey      string        // OPENAI_API_KEY
	BaseURL     string        // OPENAI_BASE_URL
	Model       string        // OPENAI_MODEL
	Temperature float64       // OPENAI_TEMPERATURE in [0,2]
	MaxTokens   int           // OPENAI_MAX_TOKENS
	Timeout     time.Duration // OPENAI_TIMEOUT
	RPS         float64       // OPENAI_RPS, 0 disables pacing
}

// CatalogConfig configures the upstream paper catalog.
type CatalogConfig struct {
	BaseURL   string        // CATALOG_BASE_URL
	ReaderURL string        // READER_BASE_URL
	Timeout   time.Duration // CATALOG_TIMEOUT
}

// SyncConfig configures scheduled and on-demand syncs.
type SyncConfig struct {
	Schedule     string // SYNC_SCHEDULE (cron spec; empty disables)
	OnStart      bool   // SYNC_ON_START
	LookbackDays int    // SYNC_LOOKBACK_DAYS
	Concurrency  int    // SUMMARY_CONCURRENCY
}

// CacheConfig selects the session store.
type CacheConfig struct {
	Enabled    bool          // USE_CACHE
	Host       string        // CACHE_HOST
	Port       int           // CACHE_PORT
	Password   string        // CACHE_PASSWORD
	SessionTTL time.Duration // SESSION_TTL
}

// Addr returns host:port of the cache server.
func (c CacheConfig) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage and upstreams
	DB      DatabaseConfig
	LLM     LLMConfig
	Catalog CatalogConfig
	Sync    SyncConfig
	Cache   CacheConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", getenv("LOGGING_LEVEL", "info"))),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DatabaseConfig{
			Driver:   strings.ToLower(getenv("DB_DRIVER", "postgres")),
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getint("POSTGRES_PORT", 5432),
			User:     getenv("POSTGRES_USER", "postgres"),
			Password: getenv("POSTGRES_PASSWORD", "postgres"),
			Name:     getenv("POSTGRES_DB", "papers_db"),
			SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
			Path:     getenv("DB_PATH", "papers.db"),
		},
		LLM: LLMConfig{
			APIKey:      getenv("OPENAI_API_KEY", ""),
			BaseURL:     getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getenv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			Temperature: getfloat("OPENAI_TEMPERATURE", 0.7),
			MaxTokens:   getint("OPENAI_MAX_TOKENS", 1000),
			Timeout:     getdur("OPENAI_TIMEOUT", 60*time.Second),
			RPS:         getfloat("OPENAI_RPS", 1.0),
		},
		Catalog: CatalogConfig{
			BaseURL:   getenv("CATALOG_BASE_URL", "https://huggingface.co/api"),
			ReaderURL: getenv("READER_BASE_URL", "https://r.jina.ai"),
			Timeout:   getdur("CATALOG_TIMEOUT", 60*time.Second),
		},
		Sync: SyncConfig{
			Schedule:     strings.TrimSpace(getenv("SYNC_SCHEDULE", "0 6 * * *")),
			OnStart:      getbool("SYNC_ON_START", false),
			LookbackDays: getint("SYNC_LOOKBACK_DAYS", 7),
			Concurrency:  getint("SUMMARY_CONCURRENCY", 4),
		},
		Cache: CacheConfig{
			Enabled:    getbool("USE_CACHE", false),
			Host:       getenv("CACHE_HOST", "localhost"),
			Port:       getint("CACHE_PORT", 6379),
			Password:   getenv("CACHE_PASSWORD", ""),
			SessionTTL: getdur("SESSION_TTL", 24*time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS:   getbool("ENABLE_HSTS", false),
			HSTSMaxAge:   getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			PublicMaxAge: getdur("PUBLIC_CACHE_MAX_AGE", time.Minute),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "paper-digest"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "postgres":
		if strings.TrimSpace(cfg.DB.Host) == "" || strings.TrimSpace(cfg.DB.Name) == "" {
			return cfg, errors.New("POSTGRES_HOST and POSTGRES_DB must not be empty")
		}
		if cfg.DB.Port <= 0 || cfg.DB.Port > 65535 {
			return cfg, errors.New("POSTGRES_PORT must be in 1..65535")
		}
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	default:
		return cfg, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DB.Driver)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return cfg, errors.New("OPENAI_TEMPERATURE must be between 0 and 2")
	}
	if cfg.LLM.MaxTokens <= 0 {
		return cfg, errors.New("OPENAI_MAX_TOKENS must be > 0")
	}
	if cfg.LLM.Timeout <= 0 || cfg.Catalog.Timeout <= 0 {
		return cfg, errors.New("OPENAI_TIMEOUT and CATALOG_TIMEOUT must be positive durations")
	}
	if cfg.LLM.RPS < 0 {
		return cfg, errors.New("OPENAI_RPS must be >= 0")
	}
	if cfg.Sync.LookbackDays < 0 {
		return cfg, errors.New("SYNC_LOOKBACK_DAYS must be >= 0")
	}
	if cfg.Sync.Concurrency < 1 {
		return cfg, errors.New("SUMMARY_CONCURRENCY must be >= 1")
	}
	if cfg.Cache.Enabled && (strings.TrimSpace(cfg.Cache.Host) == "" || cfg.Cache.Port <= 0) {
		return cfg, errors.New("CACHE_HOST and CACHE_PORT are required when USE_CACHE is on")
	}
	if cfg.Cache.SessionTTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Security.PublicMaxAge < 0 {
		return cfg, errors.New("PUBLIC_CACHE_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
