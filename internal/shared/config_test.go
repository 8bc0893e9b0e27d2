package shared_test

import (
	"errors"
	"testing"
	"time"

	"property_bot/internal/shared"
)

func TestLoad_RequiresPropertiesURL(t *testing.T) {
	t.Setenv("PROPERTIES_URL", "")
	t.Setenv("MOCKAPI_URL", "")

	_, err := shared.Load()
	var ce *shared.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ce.Key != "PROPERTIES_URL" {
		t.Fatalf("unexpected key: %s", ce.Key)
	}
}

func TestLoad_FallsBackToMockAPIURL(t *testing.T) {
	t.Setenv("PROPERTIES_URL", "")
	t.Setenv("MOCKAPI_URL", "https://example.mockapi.io/properties")

	c, err := shared.Load()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if c.PropertiesURL != "https://example.mockapi.io/properties" {
		t.Fatalf("unexpected properties url: %s", c.PropertiesURL)
	}
	if c.ComplaintsURL != "" {
		t.Fatalf("complaints url should be independent, got %s", c.ComplaintsURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROPERTIES_URL", "http://x/properties")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "not-a-number")

	c, err := shared.Load()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if c.APIKeyHeader != "Authorization" || c.APIKeyPrefix != "Bearer" {
		t.Fatalf("unexpected key header defaults: %q %q", c.APIKeyHeader, c.APIKeyPrefix)
	}
	if c.FetchTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", c.FetchTimeout)
	}
	if c.MaxMessageLen != 4000 {
		t.Fatalf("unexpected max len: %d", c.MaxMessageLen)
	}
}

func TestAPIKeyValue(t *testing.T) {
	cases := []struct {
		name   string
		cfg    shared.Config
		expect string
	}{
		{"no key", shared.Config{APIKeyPrefix: "Bearer"}, ""},
		{"prefixed", shared.Config{APIKey: "abc", APIKeyPrefix: "Bearer"}, "Bearer abc"},
		{"raw", shared.Config{APIKey: "abc", APIKeyPrefix: ""}, "abc"},
	}
	for _, tc := range cases {
		if got := tc.cfg.APIKeyValue(); got != tc.expect {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.expect)
		}
	}
}

func TestLoad_EmptyPrefixMeansRawKey(t *testing.T) {
	t.Setenv("PROPERTIES_URL", "http://x/properties")
	t.Setenv("MOCKAPI_KEY", "secret")
	t.Setenv("MOCKAPI_KEY_PREFIX", "")

	c, err := shared.Load()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := c.APIKeyValue(); got != "secret" {
		t.Fatalf("expected raw key, got %q", got)
	}
}
