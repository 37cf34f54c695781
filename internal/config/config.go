// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"giftguide/internal/model"
	"giftguide/internal/storefront"
)

// Config holds all service configuration.
// Environment determines whether the store config loads from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Store-specific configuration (loaded from secrets)
	Store StoreConfig
}

// StoreConfig contains store-specific settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	StoreURL    string `json:"store_url"`
	StoreDomain string `json:"store_domain"` // Derived from StoreURL if not set
	Currency    string `json:"currency"`     // ISO code, picks the fallback symbol

	// MoneyFormat is the theme's money pattern, e.g. "€{{amount_with_comma_separator}}".
	// Empty renders prices with the symbol fallback.
	MoneyFormat string `json:"money_format,omitempty"`

	// Hotspots are the gift-guide triggers on the page, prefetched at startup.
	Hotspots []Hotspot `json:"hotspots,omitempty"`

	Bundle BundleConfig `json:"bundle"`

	// TLSFingerprint sends storefront requests with a Chrome TLS fingerprint.
	TLSFingerprint bool `json:"tls_fingerprint,omitempty"`
}

// Hotspot is one quickview trigger: a product and the product bundled with it.
type Hotspot struct {
	Handle          string `json:"handle"`
	SecondaryHandle string `json:"secondary_handle,omitempty"`
}

// BundleConfig tunes the bundling promotion.
type BundleConfig struct {
	// TriggerValues overrides the option values that fire the promotion.
	TriggerValues []string `json:"trigger_values,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Otherwise, use ENV vars / Secret Manager approach
	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
	}

	// Load store config based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.applyDefaults()

	// Validate required store fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StoreID     string      `json:"store_id"`
		Store       StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     fileConfig.StoreID,
		Store:       fileConfig.Store,
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		StoreURL:    os.Getenv("STORE_URL"),
		StoreDomain: os.Getenv("STORE_DOMAIN"),
		Currency:    os.Getenv("STORE_CURRENCY"),
		MoneyFormat: os.Getenv("MONEY_FORMAT"),
	}

	// Parse hotspots JSON if provided
	if hotspotsJSON := os.Getenv("HOTSPOTS"); hotspotsJSON != "" {
		if err := json.Unmarshal([]byte(hotspotsJSON), &c.Store.Hotspots); err != nil {
			return fmt.Errorf("parsing HOTSPOTS JSON: %w", err)
		}
	}

	if values := os.Getenv("BUNDLE_TRIGGER_VALUES"); values != "" {
		c.Store.Bundle.TriggerValues = splitList(values)
	}

	if fp := os.Getenv("TLS_FINGERPRINT"); fp != "" {
		enabled, err := strconv.ParseBool(fp)
		if err != nil {
			return fmt.Errorf("parsing TLS_FINGERPRINT: %w", err)
		}
		c.Store.TLSFingerprint = enabled
	}

	return nil
}

// applyDefaults fills derived and defaulted store fields.
func (c *Config) applyDefaults() {
	// Derive store domain from URL if not explicitly set
	if c.Store.StoreDomain == "" && c.Store.StoreURL != "" {
		c.Store.StoreDomain = extractDomain(c.Store.StoreURL)
	}
	c.Store.Currency = strings.ToUpper(withDefault(strings.TrimSpace(c.Store.Currency), "USD"))
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}

	// Validate store URL is well-formed
	u, err := url.Parse(c.Store.StoreURL)
	if err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid store_url: scheme must be http or https")
	}

	for i, h := range c.Store.Hotspots {
		if strings.TrimSpace(h.Handle) == "" {
			return fmt.Errorf("hotspots[%d]: handle is required", i)
		}
	}

	if c.Store.MoneyFormat != "" {
		if _, err := (model.PatternFormatter{}).FormatMoney(0, c.Store.MoneyFormat); err != nil {
			return fmt.Errorf("invalid money_format: %w", err)
		}
	}

	return nil
}

// StorefrontConfig builds the storefront client configuration.
func (c *Config) StorefrontConfig() storefront.Config {
	return storefront.Config{
		StoreURL:    strings.TrimSuffix(c.Store.StoreURL, "/"),
		Fingerprint: c.Store.TLSFingerprint,
	}
}

// Money builds the price formatter. A configured money_format is applied
// with the pattern formatter; otherwise prices use the currency symbol fallback.
func (c *Config) Money() model.Money {
	m := model.Money{Currency: c.Store.Currency}
	if c.Store.MoneyFormat != "" {
		m.Host = model.PatternFormatter{}
		m.Pattern = c.Store.MoneyFormat
	}
	return m
}

// PrefetchHandles lists every product a hotspot can open or bundle, without duplicates.
func (c *Config) PrefetchHandles() []string {
	seen := make(map[string]bool)
	handles := make([]string, 0, 2*len(c.Store.Hotspots))
	for _, h := range c.Store.Hotspots {
		for _, handle := range []string{h.Handle, h.SecondaryHandle} {
			if handle == "" || seen[handle] {
				continue
			}
			seen[handle] = true
			handles = append(handles, handle)
		}
	}
	return handles
}

// extractDomain parses the domain from a URL string.
func extractDomain(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(storeURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
