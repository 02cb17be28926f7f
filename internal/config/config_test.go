package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.PricingTimeout != 2*time.Second {
		t.Errorf("PricingTimeout = %v, want 2s", cfg.PricingTimeout)
	}
	if cfg.PriceCacheTTL != time.Minute {
		t.Errorf("PriceCacheTTL = %v, want 1m", cfg.PriceCacheTTL)
	}
	if cfg.PricingMaxConcurrency != 20 {
		t.Errorf("PricingMaxConcurrency = %d, want 20", cfg.PricingMaxConcurrency)
	}
	if cfg.NarrowingThreshold != 6 {
		t.Errorf("NarrowingThreshold = %d, want 6", cfg.NarrowingThreshold)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Errorf("CORSAllowedOrigins = %v, want nil", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CALENDAR_REFRESH_INTERVAL", "5m")
	t.Setenv("PRICING_MAX_CONCURRENCY", "8")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://duneview.example, https://widget.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.CalendarRefreshInterval != 5*time.Minute {
		t.Errorf("CalendarRefreshInterval = %v, want 5m", cfg.CalendarRefreshInterval)
	}
	if cfg.PricingMaxConcurrency != 8 {
		t.Errorf("PricingMaxConcurrency = %d, want 8", cfg.PricingMaxConcurrency)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS should be true")
	}
	want := []string{"https://duneview.example", "https://widget.example"}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != want[0] || cfg.CORSAllowedOrigins[1] != want[1] {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PRICING_TIMEOUT", "not-a-duration")
	t.Setenv("SEARCH_HORIZON_DAYS", "ninety")

	cfg := Load()

	if cfg.PricingTimeout != 2*time.Second {
		t.Errorf("malformed duration should fall back to default, got %v", cfg.PricingTimeout)
	}
	if cfg.SearchHorizonDays != 90 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.SearchHorizonDays)
	}
}
