package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	ServerAddr string

	// Scoring artifact
	ModelPath string
	Threshold float64

	// Extraction
	LocatorSet         string
	ProfileURLTemplate string
	PageReadyTimeout   time.Duration
	LocatorTimeout     time.Duration
	LocatorAttempts    int
	LocatorRetryPause  time.Duration
	SettlePause        time.Duration

	// Browser
	BrowserMode string
	ChromePath  string
	Headless    bool

	// Pacing between identifiers
	ProfileDelayMin time.Duration
	ProfileDelayMax time.Duration

	// Snapshot store
	DatabasePath string

	// Redis configuration, empty address disables the stream
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration, empty address disables the batch cooldown
	MemcacheAddr  string
	BatchCooldown time.Duration

	FailureLogPath string

	// Environment
	Environment string

	// parseErr holds every malformed numeric or boolean value
	parseErr error
}

const (
	// LocatorSetPrimary selects the canonical locator lists
	LocatorSetPrimary = "primary"
	// LocatorSetLegacy selects the historical single-fallback locator lists
	LocatorSetLegacy = "legacy"

	// BrowserModeChrome drives a headless Chrome through the DevTools protocol
	BrowserModeChrome = "chrome"
	// BrowserModeStatic fetches pages over plain HTTP and evaluates CSS locators only
	BrowserModeStatic = "static"
)

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	var env envParser
	threshold := env.parseFloat("CLASSIFY_THRESHOLD", "0.68")
	pageReady := env.parseInt("PAGE_READY_TIMEOUT_SECONDS", "15")
	locatorTimeout := env.parseInt("LOCATOR_TIMEOUT_SECONDS", "10")
	locatorAttempts := env.parseInt("LOCATOR_ATTEMPTS", "2")
	retryPause := env.parseInt("LOCATOR_RETRY_PAUSE_MS", "2000")
	settlePause := env.parseInt("SETTLE_PAUSE_MS", "2000")
	headless := env.parseBool("HEADLESS", "true")
	delayMin := env.parseInt("PROFILE_DELAY_MIN_SECONDS", "5")
	delayMax := env.parseInt("PROFILE_DELAY_MAX_SECONDS", "10")
	redisDB := env.parseInt("REDIS_DB", "0")
	redisMaxLen := env.parseInt("REDIS_STREAM_MAX_LENGTH", "10000")
	cooldown := env.parseInt("BATCH_COOLDOWN_SECONDS", "0")

	return &Config{
		ServerAddr:           getEnv("SERVER_ADDR", ":5000"),
		ModelPath:            getEnv("MODEL_PATH", "xgboost_model.json"),
		Threshold:            threshold,
		LocatorSet:           strings.ToLower(getEnv("LOCATOR_SET", LocatorSetPrimary)),
		ProfileURLTemplate:   getEnv("PROFILE_URL_TEMPLATE", "https://x.com/%s/"),
		PageReadyTimeout:     time.Duration(pageReady) * time.Second,
		LocatorTimeout:       time.Duration(locatorTimeout) * time.Second,
		LocatorAttempts:      locatorAttempts,
		LocatorRetryPause:    time.Duration(retryPause) * time.Millisecond,
		SettlePause:          time.Duration(settlePause) * time.Millisecond,
		BrowserMode:          strings.ToLower(getEnv("BROWSER_MODE", BrowserModeChrome)),
		ChromePath:           getEnv("CHROME_PATH", ""),
		Headless:             headless,
		ProfileDelayMin:      time.Duration(delayMin) * time.Second,
		ProfileDelayMax:      time.Duration(delayMax) * time.Second,
		DatabasePath:         getEnv("DATABASE_PATH", "profiles.db"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "profiles"),
		RedisStreamMaxLength: redisMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BatchCooldown:        time.Duration(cooldown) * time.Second,
		FailureLogPath:       getEnv("FAILURE_LOG_PATH", "failures.log"),
		Environment:          getEnv("PROFILEWATCH_ENVIRONMENT", "development"),
		parseErr:             errors.Join(env.errs...),
	}
}

// Validate checks that the configuration can drive a batch
func (c *Config) Validate() error {
	if c.parseErr != nil {
		return c.parseErr
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("CLASSIFY_THRESHOLD must be within [0, 1], got %v", c.Threshold)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if !strings.Contains(c.ProfileURLTemplate, "%s") {
		return fmt.Errorf("PROFILE_URL_TEMPLATE must contain %%s, got %q", c.ProfileURLTemplate)
	}
	if c.LocatorSet != LocatorSetPrimary && c.LocatorSet != LocatorSetLegacy {
		return fmt.Errorf("unknown LOCATOR_SET %q", c.LocatorSet)
	}
	if c.BrowserMode != BrowserModeChrome && c.BrowserMode != BrowserModeStatic {
		return fmt.Errorf("unknown BROWSER_MODE %q", c.BrowserMode)
	}
	if c.LocatorAttempts < 1 {
		return fmt.Errorf("LOCATOR_ATTEMPTS must be at least 1, got %d", c.LocatorAttempts)
	}
	if c.LocatorTimeout <= 0 || c.PageReadyTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.ProfileDelayMin < 0 || c.ProfileDelayMax < c.ProfileDelayMin {
		return fmt.Errorf("invalid profile delay range [%s, %s]", c.ProfileDelayMin, c.ProfileDelayMax)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// envParser reads typed environment values and collects parse failures
type envParser struct {
	errs []error
}

func (p *envParser) parseFloat(key, defaultValue string) float64 {
	v, err := strconv.ParseFloat(getEnv(key, defaultValue), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return v
}

func (p *envParser) parseInt(key, defaultValue string) int {
	v, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return v
}

func (p *envParser) parseBool(key, defaultValue string) bool {
	v, err := strconv.ParseBool(getEnv(key, defaultValue))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return v
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
