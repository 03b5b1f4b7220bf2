package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAudience is the audience the platform stamps on user access tokens.
const DefaultAudience = "authenticated"

// Backend selects an adapter family.
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// PlatformConfig holds connection parameters for the managed backend platform.
type PlatformConfig struct {
	URL         string
	AnonKey     string
	ServiceKey  string
	HTTPTimeout time.Duration
	FrontendURL string
}

// Configured reports whether the base URL is set. Keys are checked when a client is built.
func (c PlatformConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != ""
}

// JWTConfig configures verification of platform-issued access tokens.
type JWTConfig struct {
	// Secret is the shared HS256 signing secret. Empty means verification is misconfigured;
	// that is reported per request as a server error rather than failing startup.
	Secret    string
	Audience  string
	ClockSkew time.Duration
}

// RateLimitConfig configures the limiter in front of the location report endpoint.
type RateLimitConfig struct {
	LocationPerMinute int
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
}

// Config is the full process configuration, built once at startup and passed down explicitly.
type Config struct {
	Port     string
	LogLevel string

	Platform PlatformConfig
	JWT      JWTConfig

	StorageBackend  Backend
	IdentityBackend Backend
	DatabaseURL     string
	MigrateOnStart  bool

	RateLimit RateLimitConfig
}

// LoadFromEnv reads Config from environment variables.
func LoadFromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load reads Config using lookup, which has the signature of os.LookupEnv.
func Load(lookup func(string) (string, bool)) (Config, error) {
	get := func(k, def string) string {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Port:     get("PORT", "5000"),
		LogLevel: get("LOG_LEVEL", "info"),
		Platform: PlatformConfig{
			URL:         strings.TrimRight(get("SUPABASE_URL", ""), "/"),
			AnonKey:     get("SUPABASE_KEY", ""),
			ServiceKey:  get("SUPABASE_SERVICE_ROLE_KEY", ""),
			HTTPTimeout: 10 * time.Second,
			FrontendURL: strings.TrimRight(get("FRONTEND_URL", "http://localhost:5173"), "/"),
		},
		JWT: JWTConfig{
			Secret:    get("SUPABASE_JWT_SECRET", ""),
			Audience:  get("JWT_AUDIENCE", DefaultAudience),
			ClockSkew: 30 * time.Second,
		},
		DatabaseURL: get("DATABASE_URL", ""),
		RateLimit: RateLimitConfig{
			LocationPerMinute: 120,
			RedisAddr:         get("RATE_LIMIT_REDIS_ADDR", ""),
			RedisPassword:     get("RATE_LIMIT_REDIS_PASSWORD", ""),
		},
	}

	var err error
	if cfg.Platform.HTTPTimeout, err = durationVar(get, "HTTP_TIMEOUT", cfg.Platform.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.JWT.ClockSkew, err = durationVar(get, "JWT_CLOCK_SKEW", cfg.JWT.ClockSkew); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.LocationPerMinute, err = intVar(get, "RATE_LIMIT_LOCATION_PER_MINUTE", cfg.RateLimit.LocationPerMinute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.RedisDB, err = intVar(get, "RATE_LIMIT_REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if v := get("MIGRATE_ON_START", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("MIGRATE_ON_START must be a boolean: %w", err)
		}
		cfg.MigrateOnStart = b
	}

	// Without a platform URL the service runs against in-memory adapters, like a local mock mode.
	defaultBackend := BackendMemory
	if cfg.Platform.Configured() {
		defaultBackend = BackendSupabase
	}
	if cfg.StorageBackend, err = backendVar(get, "STORAGE_BACKEND", defaultBackend, BackendSupabase, BackendPostgres, BackendMemory); err != nil {
		return Config{}, err
	}
	if cfg.IdentityBackend, err = backendVar(get, "IDENTITY_BACKEND", defaultBackend, BackendSupabase, BackendMemory); err != nil {
		return Config{}, err
	}

	if cfg.StorageBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}
	if (cfg.StorageBackend == BackendSupabase || cfg.IdentityBackend == BackendSupabase) && !cfg.Platform.Configured() {
		return Config{}, fmt.Errorf("SUPABASE_URL is required for the supabase backend")
	}
	return cfg, nil
}

func durationVar(get func(string, string) string, k string, def time.Duration) (time.Duration, error) {
	v := get(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", k, err)
	}
	return d, nil
}

func intVar(get func(string, string) string, k string, def int) (int, error) {
	v := get(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", k, err)
	}
	return n, nil
}

func backendVar(get func(string, string) string, k string, def Backend, allowed ...Backend) (Backend, error) {
	v := Backend(strings.ToLower(get(k, string(def))))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s has unsupported value %q", k, v)
}
