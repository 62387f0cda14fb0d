package classifier

import (
	"fmt"

	"sjsage522/profilewatch/internal/profile"
	apperrors "sjsage522/profilewatch/pkg/errors"
)

const (
	// DefaultThreshold is the minimum genuine probability of the current deployment
	DefaultThreshold = 0.68
	// LegacyThreshold is the plain majority cut-off used by the earlier scraper variant.
	// That variant labelled a profile genuine only when the probability was strictly
	// above 0.5; Label is inclusive, so a probability of exactly 0.5 is Genuine here.
	LegacyThreshold = 0.5
)

// Classifier labels profile signals by thresholding a scorer's probability
type Classifier struct {
	scorer    Scorer
	threshold float64
}

var _ profile.Labeler = (*Classifier)(nil)

// New creates a classifier. The scorer is shared read-only for the process lifetime.
func New(scorer Scorer, threshold float64) (*Classifier, error) {
	if scorer == nil {
		return nil, apperrors.NewConfiguration("classifier requires a scorer", nil)
	}
	if threshold < 0 || threshold > 1 {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("threshold %v outside [0, 1]", threshold), nil)
	}
	return &Classifier{scorer: scorer, threshold: threshold}, nil
}

// NewFeatureVector builds the ordered feature row for signals
func NewFeatureVector(s profile.Signals) FeatureVector {
	verified := 0.0
	if s.Verified {
		verified = 1
	}
	return FeatureVector{
		float64(s.Followers),
		float64(s.Following),
		float64(s.Subscriptions),
		verified,
	}
}

// Probability returns the scorer's genuine probability for signals
func (c *Classifier) Probability(s profile.Signals) float64 {
	return c.scorer.Score(NewFeatureVector(s))
}

// Label implements profile.Labeler
func (c *Classifier) Label(s profile.Signals) profile.Status {
	if c.Probability(s) >= c.threshold {
		return profile.StatusGenuine
	}
	return profile.StatusFake
}

// Classify labels the four raw features
func (c *Classifier) Classify(followers, following, subscriptions int64, verified bool) profile.Status {
	return c.Label(profile.Signals{
		Followers:     followers,
		Following:     following,
		Subscriptions: subscriptions,
		Verified:      verified,
	})
}

// Threshold returns the decision threshold
func (c *Classifier) Threshold() float64 {
	return c.threshold
}
