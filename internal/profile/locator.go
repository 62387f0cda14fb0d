package profile

import (
	"context"
	"errors"
	"time"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/logger"
)

const (
	DefaultLocatorAttempts   = 2
	DefaultLocatorTimeout    = 10 * time.Second
	DefaultLocatorRetryPause = 2 * time.Second
)

// Resolver finds the first element matching a ranked list of candidate locators
type Resolver struct {
	attempts int
	timeout  time.Duration
	pause    helpers.DelayPolicy
	log      *logger.Logger
}

// NewResolver creates a resolver making up to attempts presence-waits of timeout per candidate,
// pausing by policy between attempts
func NewResolver(attempts int, timeout time.Duration, pause helpers.DelayPolicy) *Resolver {
	if attempts < 1 {
		attempts = 1
	}
	return &Resolver{
		attempts: attempts,
		timeout:  timeout,
		pause:    pause,
		log:      logger.ForExtractor(),
	}
}

// DefaultResolver uses the compiled-in retry budget
func DefaultResolver() *Resolver {
	return NewResolver(DefaultLocatorAttempts, DefaultLocatorTimeout, helpers.FixedDelay(DefaultLocatorRetryPause))
}

// WithLogger returns a copy of r logging to log
func (r *Resolver) WithLogger(log *logger.Logger) *Resolver {
	clone := *r
	clone.log = log
	return &clone
}

// Resolve tries candidates in order and returns the first element found.
// Candidates after the first hit are never queried.
func (r *Resolver) Resolve(ctx context.Context, d Driver, candidates []Locator) (Element, bool) {
	for _, loc := range candidates {
		if ctx.Err() != nil {
			return nil, false
		}
		if el, ok := r.resolveOne(ctx, d, loc); ok {
			return el, true
		}
	}
	return nil, false
}

func (r *Resolver) resolveOne(ctx context.Context, d Driver, loc Locator) (Element, bool) {
	for attempt := 0; attempt < r.attempts; attempt++ {
		el, err := d.Find(ctx, loc, r.timeout)
		if err == nil && el != nil {
			return el, true
		}

		r.log.Debug().
			Int("attempt", attempt+1).
			Str("locator", loc.String()).
			Err(err).
			Msg("Locator did not resolve")

		if errors.Is(err, ErrUnsupportedStrategy) || errors.Is(err, ErrSessionClosed) || ctx.Err() != nil {
			return nil, false
		}
		if attempt+1 < r.attempts {
			helpers.Pause(ctx, r.pause, attempt)
		}
	}
	return nil, false
}
