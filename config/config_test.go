package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, ":5000", config.ServerAddr)
	assert.Equal(t, 0.68, config.Threshold)
	assert.Equal(t, LocatorSetPrimary, config.LocatorSet)
	assert.Equal(t, "https://x.com/%s/", config.ProfileURLTemplate)
	assert.Equal(t, 15*time.Second, config.PageReadyTimeout)
	assert.Equal(t, 10*time.Second, config.LocatorTimeout)
	assert.Equal(t, 2, config.LocatorAttempts)
	assert.Equal(t, 2*time.Second, config.LocatorRetryPause)
	assert.Equal(t, 5*time.Second, config.ProfileDelayMin)
	assert.Equal(t, 10*time.Second, config.ProfileDelayMax)
	assert.Equal(t, BrowserModeChrome, config.BrowserMode)
	assert.True(t, config.Headless)
	assert.Empty(t, config.RedisAddr)
	assert.Empty(t, config.MemcacheAddr)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("CLASSIFY_THRESHOLD", "0.5")
	t.Setenv("LOCATOR_SET", "Legacy")
	t.Setenv("BROWSER_MODE", "static")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("BATCH_COOLDOWN_SECONDS", "30")
	t.Setenv("PROFILE_DELAY_MIN_SECONDS", "1")
	t.Setenv("PROFILE_DELAY_MAX_SECONDS", "2")

	config = LoadConfig()
	assert.Equal(t, 0.5, config.Threshold)
	assert.Equal(t, LocatorSetLegacy, config.LocatorSet)
	assert.Equal(t, BrowserModeStatic, config.BrowserMode)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, 30*time.Second, config.BatchCooldown)
	assert.Equal(t, time.Second, config.ProfileDelayMin)
	assert.Equal(t, 2*time.Second, config.ProfileDelayMax)
	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Threshold = 1.2 }},
		{"negative threshold", func(c *Config) { c.Threshold = -0.1 }},
		{"missing model", func(c *Config) { c.ModelPath = "" }},
		{"template without placeholder", func(c *Config) { c.ProfileURLTemplate = "https://x.com/" }},
		{"unknown locator set", func(c *Config) { c.LocatorSet = "beta" }},
		{"unknown browser mode", func(c *Config) { c.BrowserMode = "firefox" }},
		{"zero attempts", func(c *Config) { c.LocatorAttempts = 0 }},
		{"inverted delay range", func(c *Config) { c.ProfileDelayMax = time.Second }},
		{"missing database", func(c *Config) { c.DatabasePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := LoadConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestLoadConfigMalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CLASSIFY_THRESHOLD", "0,68"},
		{"LOCATOR_ATTEMPTS", "two"},
		{"PAGE_READY_TIMEOUT_SECONDS", "15s"},
		{"HEADLESS", "maybe"},
		{"REDIS_DB", "db1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			err := LoadConfig().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadConfigReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("CLASSIFY_THRESHOLD", "high")
	t.Setenv("BATCH_COOLDOWN_SECONDS", "-")

	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLASSIFY_THRESHOLD")
	assert.Contains(t, err.Error(), "BATCH_COOLDOWN_SECONDS")
}
