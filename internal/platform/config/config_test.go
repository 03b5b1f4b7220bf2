package config

import (
	"strings"
	"testing"
	"time"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_DefaultsToMemoryWithoutPlatformURL(t *testing.T) {
	t.Parallel()

	cfg, err := Load(lookupFrom(map[string]string{}))
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.StorageBackend != BackendMemory || cfg.IdentityBackend != BackendMemory {
		t.Fatalf("backends=%q/%q, want memory", cfg.StorageBackend, cfg.IdentityBackend)
	}
	if cfg.Port != "5000" {
		t.Fatalf("port=%q", cfg.Port)
	}
	if cfg.JWT.Audience != DefaultAudience || cfg.JWT.ClockSkew != 30*time.Second {
		t.Fatalf("jwt=%+v", cfg.JWT)
	}
	if cfg.JWT.Secret != "" {
		t.Fatalf("expected empty secret")
	}
	if cfg.RateLimit.LocationPerMinute != 120 {
		t.Fatalf("rate limit=%d", cfg.RateLimit.LocationPerMinute)
	}
}

func TestLoad_PlatformURLSelectsSupabase(t *testing.T) {
	t.Parallel()

	cfg, err := Load(lookupFrom(map[string]string{
		"SUPABASE_URL":              "https://abc.supabase.co/",
		"SUPABASE_KEY":              "anon",
		"SUPABASE_SERVICE_ROLE_KEY": "service",
		"SUPABASE_JWT_SECRET":       "s3cret",
		"FRONTEND_URL":              "https://app.example.com/",
		"HTTP_TIMEOUT":              "3s",
	}))
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.StorageBackend != BackendSupabase || cfg.IdentityBackend != BackendSupabase {
		t.Fatalf("backends=%q/%q, want supabase", cfg.StorageBackend, cfg.IdentityBackend)
	}
	if cfg.Platform.URL != "https://abc.supabase.co" {
		t.Fatalf("url=%q", cfg.Platform.URL)
	}
	if cfg.Platform.FrontendURL != "https://app.example.com" {
		t.Fatalf("frontend=%q", cfg.Platform.FrontendURL)
	}
	if cfg.Platform.HTTPTimeout != 3*time.Second {
		t.Fatalf("timeout=%v", cfg.Platform.HTTPTimeout)
	}
	if cfg.JWT.Secret != "s3cret" {
		t.Fatalf("secret not loaded")
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	_, err := Load(lookupFrom(map[string]string{"STORAGE_BACKEND": "postgres"}))
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err=%v, want DATABASE_URL error", err)
	}
}

func TestLoad_SupabaseBackendRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := Load(lookupFrom(map[string]string{"IDENTITY_BACKEND": "supabase"}))
	if err == nil || !strings.Contains(err.Error(), "SUPABASE_URL") {
		t.Fatalf("err=%v, want SUPABASE_URL error", err)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"duration": {"JWT_CLOCK_SKEW": "soon"},
		"int":      {"RATE_LIMIT_LOCATION_PER_MINUTE": "lots"},
		"bool":     {"MIGRATE_ON_START": "maybe"},
		"backend":  {"STORAGE_BACKEND": "sqlite"},
	}
	for name, env := range cases {
		env := env
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(lookupFrom(env)); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}
