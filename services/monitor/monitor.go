package monitor

import (
	"context"
	"errors"
	"time"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal"
	"sjsage522/profilewatch/internal/browser"
	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/logger"
	apperrors "sjsage522/profilewatch/pkg/errors"
	"sjsage522/profilewatch/services/publisher"
	"sjsage522/profilewatch/services/store"
)

const (
	// DefaultProfileDelayMin and DefaultProfileDelayMax bound the pause after each identifier
	DefaultProfileDelayMin = 5 * time.Second
	DefaultProfileDelayMax = 10 * time.Second

	batchCompleted = "completed"
	batchAborted   = "aborted"
)

// Extractor produces one profile record from a driver
type Extractor interface {
	Extract(ctx context.Context, d profile.Driver, identifier string) (profile.ProfileRecord, error)
}

// Result is the per-identifier outcome returned to callers
type Result struct {
	Username string         `json:"username"`
	Status   profile.Status `json:"status"`
}

// Monitor runs batches of identifiers through one browser session
type Monitor struct {
	launcher  browser.Launcher
	opener    store.Opener
	publisher publisher.Publisher
	failures  helpers.FailureLogger
	extractor Extractor
	delay     helpers.DelayPolicy
	metrics   *Metrics
	log       *logger.Logger
}

// NewMonitor creates a new monitor. A nil delay uses a uniform pause between
// DefaultProfileDelayMin and DefaultProfileDelayMax; nil metrics are unregistered.
func NewMonitor(deps internal.Dependencies, extractor Extractor, delay helpers.DelayPolicy, metrics *Metrics) *Monitor {
	if delay == nil {
		delay = helpers.UniformDelay(DefaultProfileDelayMin, DefaultProfileDelayMax)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Monitor{
		launcher:  deps.Launcher,
		opener:    deps.Store,
		publisher: deps.Publisher,
		failures:  deps.Failures,
		extractor: extractor,
		delay:     delay,
		metrics:   metrics,
		log:       logger.ForMonitor(),
	}
}

// MonitorBatch processes identifiers sequentially in input order. Failed
// identifiers are logged and omitted from the results; session, storage and
// configuration failures abort the batch and are returned with the results
// gathered so far.
func (m *Monitor) MonitorBatch(ctx context.Context, identifiers []string) ([]Result, error) {
	start := time.Now()
	m.metrics.BatchesInFlight.Inc()
	defer m.metrics.BatchesInFlight.Dec()

	m.log.Info().Int("profiles", len(identifiers)).Msg("Batch started")

	session, err := m.launcher.Launch(ctx)
	if err != nil {
		return nil, m.abort(asProfileError("", err, apperrors.ErrorTypeSession))
	}
	defer func() {
		if err := session.Close(); err != nil {
			m.log.Warn().Err(err).Msg("Failed to close browser session")
		}
	}()

	st, err := m.opener.Open(ctx)
	if err != nil {
		return nil, m.abort(asProfileError("", err, apperrors.ErrorTypeStorage))
	}
	defer func() {
		if err := st.Close(); err != nil {
			m.log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	results := make([]Result, 0, len(identifiers))
	for i, identifier := range identifiers {
		if err := ctx.Err(); err != nil {
			return results, m.abort(apperrors.NewSession("batch cancelled", err))
		}

		record, err := m.process(ctx, session, st, identifier)
		if err != nil {
			pe := asProfileError(identifier, err, apperrors.ErrorTypeUnexpected)
			m.metrics.Failures.WithLabelValues(string(pe.Type)).Inc()
			if pe.IsFatal() {
				return results, m.abort(pe)
			}
			m.log.Warn().Err(pe).Str("username", identifier).Msg("Profile skipped")
			if m.failures != nil {
				m.failures.LogFailure(identifier, pe)
			}
		} else {
			results = append(results, Result{Username: record.Username(), Status: record.Status()})
			m.metrics.Profiles.WithLabelValues(string(record.Status())).Inc()
			m.log.Info().
				Str("username", record.Username()).
				Str("status", string(record.Status())).
				Msg("Profile classified")
		}

		helpers.Pause(ctx, m.delay, i)
	}

	if m.publisher != nil {
		if err := m.publisher.TrimStream(ctx); err != nil {
			m.log.Warn().Err(err).Msg("Failed to trim stream")
		}
	}

	m.metrics.Batches.WithLabelValues(batchCompleted).Inc()
	m.log.Info().
		Int("profiles", len(identifiers)).
		Int("classified", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch completed")
	return results, nil
}

// process extracts, stores and publishes one identifier
func (m *Monitor) process(ctx context.Context, session browser.Session, st store.Store, identifier string) (profile.ProfileRecord, error) {
	start := time.Now()
	record, err := m.extractor.Extract(ctx, session, identifier)
	m.metrics.ProfileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return profile.ProfileRecord{}, err
	}

	if err := st.Insert(ctx, record); err != nil {
		return profile.ProfileRecord{}, err
	}

	if m.publisher != nil {
		if err := publisher.PublishSnapshot(ctx, m.publisher, record); err != nil {
			m.metrics.PublishFailures.Inc()
			m.log.Warn().
				Err(apperrors.NewPublisher(identifier, "publish snapshot", err)).
				Msg("Snapshot not published")
		}
	}
	return record, nil
}

func (m *Monitor) abort(err *apperrors.ProfileError) error {
	m.metrics.Batches.WithLabelValues(batchAborted).Inc()
	m.log.Error().Err(err).Msg("Batch aborted")
	return err
}

// asProfileError returns err as a ProfileError, wrapping foreign errors as fallback
func asProfileError(identifier string, err error, fallback apperrors.ErrorType) *apperrors.ProfileError {
	var pe *apperrors.ProfileError
	if errors.As(err, &pe) {
		return pe
	}
	return apperrors.New(fallback, identifier, err.Error(), err)
}
