package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "GCP_PROJECT", "STORE_ID",
		"STORE_URL", "STORE_DOMAIN", "STORE_CURRENCY", "MONEY_FORMAT", "HOTSPOTS",
		"BUNDLE_TRIGGER_VALUES", "TLS_FINGERPRINT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_URL", "https://shop.example.com/")
	t.Setenv("STORE_CURRENCY", "eur")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HOTSPOTS", `[{"handle":"hoodie","secondary_handle":"jacket"},{"handle":"mug"}]`)
	t.Setenv("BUNDLE_TRIGGER_VALUES", "Black, Large ,")
	t.Setenv("TLS_FINGERPRINT", "true")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Verify server settings
	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}

	want := StoreConfig{
		StoreURL:    "https://shop.example.com/",
		StoreDomain: "shop.example.com",
		Currency:    "EUR",
		Hotspots: []Hotspot{
			{Handle: "hoodie", SecondaryHandle: "jacket"},
			{Handle: "mug"},
		},
		Bundle:         BundleConfig{TriggerValues: []string{"Black", "Large"}},
		TLSFingerprint: true,
	}
	if diff := cmp.Diff(want, cfg.Store); diff != "" {
		t.Errorf("Store mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "https://shop.example.com")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Environment != "development" || cfg.LogLevel != "info" {
		t.Errorf("defaults = %s/%s/%s", cfg.Port, cfg.Environment, cfg.LogLevel)
	}
	if cfg.Store.Currency != "USD" {
		t.Errorf("Currency = %s, want USD", cfg.Store.Currency)
	}
}

func TestLoadProductionRequiresGCP(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing project",
			env:     map[string]string{"ENVIRONMENT": "production", "STORE_ID": "store"},
			wantErr: "GCP_PROJECT required",
		},
		{
			name:    "missing store id",
			env:     map[string]string{"ENVIRONMENT": "production", "GCP_PROJECT": "proj"},
			wantErr: "STORE_ID required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing store_url",
			env:     map[string]string{},
			wantErr: "store_url is required",
		},
		{
			name:    "store_url without scheme",
			env:     map[string]string{"STORE_URL": "shop.example.com"},
			wantErr: "invalid store_url",
		},
		{
			name:    "bad hotspots JSON",
			env:     map[string]string{"STORE_URL": "https://shop.com", "HOTSPOTS": "[{"},
			wantErr: "parsing HOTSPOTS JSON",
		},
		{
			name:    "hotspot without handle",
			env:     map[string]string{"STORE_URL": "https://shop.com", "HOTSPOTS": `[{"secondary_handle":"jacket"}]`},
			wantErr: "hotspots[0]: handle is required",
		},
		{
			name:    "bad TLS_FINGERPRINT",
			env:     map[string]string{"STORE_URL": "https://shop.com", "TLS_FINGERPRINT": "maybe"},
			wantErr: "parsing TLS_FINGERPRINT",
		},
		{
			name:    "unknown money placeholder",
			env:     map[string]string{"STORE_URL": "https://shop.com", "MONEY_FORMAT": "{{price}}"},
			wantErr: "invalid money_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(context.Background())
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `{
		"port": "9090",
		"environment": "test",
		"log_level": "debug",
		"store_id": "gift-shop",
		"store": {
			"store_url": "https://file-shop.com",
			"money_format": "€{{amount_with_comma_separator}}",
			"hotspots": [{"handle": "hoodie", "secondary_handle": "jacket"}],
			"bundle": {"trigger_values": ["black", "medium"]}
		}
	}`))

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.StoreID != "gift-shop" {
		t.Errorf("StoreID = %s, want gift-shop", cfg.StoreID)
	}
	if cfg.Store.StoreDomain != "file-shop.com" {
		t.Errorf("StoreDomain = %s, want file-shop.com (derived)", cfg.Store.StoreDomain)
	}
	if got := cfg.Money().Format(123456); got != "€1.234,56" {
		t.Errorf("Money().Format = %q, want €1.234,56", got)
	}
	if len(cfg.Store.Bundle.TriggerValues) != 2 {
		t.Errorf("TriggerValues = %v", cfg.Store.Bundle.TriggerValues)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", "/nonexistent/config.json")
		if _, err := Load(context.Background()); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeConfigFile(t, "{invalid json"))
		if _, err := Load(context.Background()); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("missing store_url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeConfigFile(t, `{"store_id": "test"}`))
		_, err := Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "store_url is required") {
			t.Errorf("expected store_url error, got: %v", err)
		}
	})
}

func TestMoney(t *testing.T) {
	tests := []struct {
		name  string
		store StoreConfig
		cents int64
		want  string
	}{
		{"fallback USD", StoreConfig{Currency: "USD"}, 2500, "$25.00"},
		{"fallback INR", StoreConfig{Currency: "INR"}, 99900, "₹999.00"},
		{"fallback unknown", StoreConfig{Currency: "GBP"}, 100, "$1.00"},
		{"pattern", StoreConfig{Currency: "USD", MoneyFormat: "${{amount}} USD"}, 123456, "$1,234.56 USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: tt.store}
			if got := cfg.Money().Format(tt.cents); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.cents, got, tt.want)
			}
		})
	}
}

func TestPrefetchHandles(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Hotspots: []Hotspot{
		{Handle: "hoodie", SecondaryHandle: "jacket"},
		{Handle: "scarf", SecondaryHandle: "jacket"},
		{Handle: "hoodie"},
	}}}

	want := []string{"hoodie", "jacket", "scarf"}
	if diff := cmp.Diff(want, cfg.PrefetchHandles()); diff != "" {
		t.Errorf("PrefetchHandles() mismatch (-want +got):\n%s", diff)
	}
}

func TestStorefrontConfig(t *testing.T) {
	cfg := &Config{Store: StoreConfig{StoreURL: "https://shop.example.com/", TLSFingerprint: true}}

	sc := cfg.StorefrontConfig()
	if sc.StoreURL != "https://shop.example.com" {
		t.Errorf("StoreURL = %s", sc.StoreURL)
	}
	if !sc.Fingerprint {
		t.Error("Fingerprint = false, want true")
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.example.com", "shop.example.com"},
		{"https://shop.example.com/", "shop.example.com"},
		{"https://shop.example.com/path/to/page", "shop.example.com"},
		{"http://shop.example.com:8080", "shop.example.com:8080"},
		{"https://sub.shop.example.com", "sub.shop.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := extractDomain(tt.url)
			if got != tt.want {
				t.Errorf("extractDomain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" black, medium ,,")
	if diff := cmp.Diff([]string{"black", "medium"}, got); diff != "" {
		t.Errorf("splitList mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom")
	if got := envOrDefault("TEST_ENV_VAR", "default"); got != "custom" {
		t.Errorf("envOrDefault with set var = %q, want custom", got)
	}

	os.Unsetenv("TEST_ENV_VAR_UNSET")
	if got := envOrDefault("TEST_ENV_VAR_UNSET", "default"); got != "default" {
		t.Errorf("envOrDefault with unset var = %q, want default", got)
	}
}

func TestWithDefault(t *testing.T) {
	if got := withDefault("value", "default"); got != "value" {
		t.Errorf("withDefault(value, default) = %q, want value", got)
	}
	if got := withDefault("", "default"); got != "default" {
		t.Errorf("withDefault('', default) = %q, want default", got)
	}
}
