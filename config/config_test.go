package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
[reddit]
client_id = "id"
client_secret = "secret"
user_agent = "citymood-test/0.1"

[cities]
"Test City" = "testsub"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Collection.MaxPostsPerFetch != 100 {
		t.Errorf("max_posts_per_fetch = %d, want 100", cfg.Collection.MaxPostsPerFetch)
	}
	if cfg.Collection.TimeFilter != "week" {
		t.Errorf("time_filter = %q, want week", cfg.Collection.TimeFilter)
	}
	if !cfg.Collection.FetchComments {
		t.Error("fetch_comments should default to true")
	}
	if cfg.Collection.MaxCommentsPerPost != 50 {
		t.Errorf("max_comments_per_post = %d, want 50", cfg.Collection.MaxCommentsPerPost)
	}
	if cfg.Collection.MinTextLength != 10 {
		t.Errorf("min_text_length = %d, want 10", cfg.Collection.MinTextLength)
	}
	if cfg.Interval() != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", cfg.Interval())
	}
	if got := cfg.Cities["Test City"]; got != "testsub" {
		t.Errorf("cities[Test City] = %q, want testsub", got)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "env-id")
	t.Setenv("FETCH_COMMENTS", "false")
	t.Setenv("COLLECTION_INTERVAL_HOURS", "0.5")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Reddit.ClientID != "env-id" {
		t.Errorf("client_id = %q, want env-id", cfg.Reddit.ClientID)
	}
	if cfg.Collection.FetchComments {
		t.Error("FETCH_COMMENTS=false should disable comment collection")
	}
	if cfg.Interval() != 30*time.Minute {
		t.Errorf("interval = %v, want 30m", cfg.Interval())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing client id", func(c *Config) { c.Reddit.ClientID = "" }},
		{"missing client secret", func(c *Config) { c.Reddit.ClientSecret = "" }},
		{"no cities", func(c *Config) { c.Cities = nil }},
		{"bad time filter", func(c *Config) { c.Collection.TimeFilter = "fortnight" }},
		{"zero post limit", func(c *Config) { c.Collection.MaxPostsPerFetch = 0 }},
		{"negative interval", func(c *Config) { c.Collection.IntervalHours = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := CreateDefaultConfig()
			cfg.Reddit.ClientID = "id"
			cfg.Reddit.ClientSecret = "secret"
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnsureConfigExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := EnsureConfigExists(path); err != nil {
		t.Fatalf("EnsureConfigExists: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	// A second call must leave the existing file alone.
	if err := EnsureConfigExists(path); err != nil {
		t.Fatalf("EnsureConfigExists (existing): %v", err)
	}
}
