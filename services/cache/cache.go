package cache

import (
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Cooldown blocks a key for a fixed period after Start. The marker lives in
// the cache so every server instance sharing it observes the same window.
type Cooldown struct {
	cache  CacheService
	key    string
	period time.Duration
}

// NewCooldown creates a new cooldown stored under key
func NewCooldown(cache CacheService, key string, period time.Duration) *Cooldown {
	return &Cooldown{
		cache:  cache,
		key:    key,
		period: period,
	}
}

// Active reports whether a marker is present
func (c *Cooldown) Active() (bool, error) {
	_, err := c.cache.Get(c.key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Start sets the marker for the configured period
func (c *Cooldown) Start() error {
	if c.period <= 0 {
		return nil
	}
	return c.cache.Set(c.key, []byte(time.Now().UTC().Format(time.RFC3339)), c.period)
}

// Period returns the cooldown length
func (c *Cooldown) Period() time.Duration {
	return c.period
}
