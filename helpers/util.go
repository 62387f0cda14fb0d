package helpers

import (
	"context"
	mathrand "math/rand"
	"time"
)

// DelayPolicy maps a zero-based attempt index to the pause taken after it
type DelayPolicy func(attempt int) time.Duration

// NoDelay never pauses
func NoDelay(int) time.Duration { return 0 }

// FixedDelay pauses for the same duration after every attempt
func FixedDelay(d time.Duration) DelayPolicy {
	return func(int) time.Duration { return d }
}

// UniformDelay pauses for a uniformly random duration in [min, max]
func UniformDelay(min, max time.Duration) DelayPolicy {
	if max <= min {
		return FixedDelay(min)
	}
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	return func(int) time.Duration {
		return min + time.Duration(rnd.Int63n(int64(max-min)+1))
	}
}

// Sleep blocks for d or until ctx is done. Non-positive durations return at once.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Pause applies policy for the given attempt
func Pause(ctx context.Context, policy DelayPolicy, attempt int) {
	if policy == nil {
		return
	}
	Sleep(ctx, policy(attempt))
}
