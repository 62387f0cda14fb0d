package monitor

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/profilewatch/internal"
	"sjsage522/profilewatch/internal/profile"
	apperrors "sjsage522/profilewatch/pkg/errors"
)

type fixture struct {
	launcher  *MockLauncher
	opener    *MockOpener
	extractor *MockExtractor
	publisher *MockPublisher
	failures  *MockFailureLog
	delay     *delayRecorder
	metrics   *Metrics
	monitor   *Monitor
}

func newFixture() *fixture {
	f := &fixture{
		launcher:  &MockLauncher{session: &MockSession{}},
		opener:    &MockOpener{store: &MockStore{}},
		extractor: NewMockExtractor(),
		publisher: &MockPublisher{},
		failures:  &MockFailureLog{},
		delay:     &delayRecorder{},
		metrics:   NewMetrics(prometheus.NewRegistry()),
	}
	deps := internal.Dependencies{
		Launcher:  f.launcher,
		Store:     f.opener,
		Publisher: f.publisher,
		Failures:  f.failures,
	}
	f.monitor = NewMonitor(deps, f.extractor, f.delay.policy(), f.metrics)
	return f
}

func (f *fixture) assertReleasedOnce(t *testing.T) {
	t.Helper()
	assert.Equal(t, 1, f.launcher.session.closeCount, "session released once")
	assert.Equal(t, 1, f.opener.store.closeCount, "store released once")
}

func TestMonitorBatchKeepsInputOrderAndSkipsFailures(t *testing.T) {
	f := newFixture()
	f.extractor.signals["alice"] = profile.Signals{Followers: 5000}
	f.extractor.signals["carol"] = profile.Signals{Followers: 10}
	f.extractor.errs["bob"] = apperrors.NewHeaderNotFound("bob")

	results, err := f.monitor.MonitorBatch(context.Background(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, []Result{
		{Username: "alice", Status: profile.StatusGenuine},
		{Username: "carol", Status: profile.StatusFake},
	}, results)
	assert.Equal(t, []string{"alice", "bob", "carol"}, f.extractor.calls)
	assert.Equal(t, []string{"bob"}, f.failures.identifiers)
	assert.Len(t, f.opener.store.records, 2)
	assert.Len(t, f.publisher.messages, 2)
	assert.Equal(t, 1, f.publisher.trims, "stream trimmed after the batch")
	assert.Equal(t, []int{0, 1, 2}, f.delay.attempts, "pause after every identifier")
	assert.Equal(t, 1, f.launcher.launches, "one session per batch")
	f.assertReleasedOnce(t)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Profiles.WithLabelValues("Genuine")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Profiles.WithLabelValues("Fake")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Failures.WithLabelValues("header_not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Batches.WithLabelValues(batchCompleted)))
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.BatchesInFlight))
}

func TestMonitorBatchEmptyReleasesResources(t *testing.T) {
	f := newFixture()

	results, err := f.monitor.MonitorBatch(context.Background(), nil)
	require.NoError(t, err)

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, f.extractor.calls)
	assert.Empty(t, f.delay.attempts)
	f.assertReleasedOnce(t)
}

func TestMonitorBatchLaunchFailureAborts(t *testing.T) {
	f := newFixture()
	f.launcher.launchErr = errBoom

	results, err := f.monitor.MonitorBatch(context.Background(), []string{"alice"})
	require.Error(t, err)
	assert.Nil(t, results)

	var pe *apperrors.ProfileError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, apperrors.ErrorTypeSession, pe.Type)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, f.opener.opens)
	assert.Empty(t, f.extractor.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Batches.WithLabelValues(batchAborted)))
}

func TestMonitorBatchStoreOpenFailureReleasesSession(t *testing.T) {
	f := newFixture()
	f.opener.openErr = apperrors.NewStorage("", "open database", errBoom)

	_, err := f.monitor.MonitorBatch(context.Background(), []string{"alice"})
	require.Error(t, err)

	var pe *apperrors.ProfileError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, apperrors.ErrorTypeStorage, pe.Type)
	assert.Equal(t, 1, f.launcher.session.closeCount)
	assert.Empty(t, f.extractor.calls)
}

func TestMonitorBatchFatalErrorAborts(t *testing.T) {
	f := newFixture()
	f.extractor.signals["alice"] = profile.Signals{Followers: 5000}
	f.extractor.errs["bob"] = apperrors.NewSession("browser gone", profile.ErrSessionClosed)

	results, err := f.monitor.MonitorBatch(context.Background(), []string{"alice", "bob", "carol"})
	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrSessionClosed)

	assert.Equal(t, []Result{{Username: "alice", Status: profile.StatusGenuine}}, results)
	assert.Equal(t, []string{"alice", "bob"}, f.extractor.calls)
	assert.Empty(t, f.failures.identifiers)
	f.assertReleasedOnce(t)
}

func TestMonitorBatchInsertFailureAborts(t *testing.T) {
	f := newFixture()
	f.opener.store.insertErr = apperrors.NewStorage("alice", "insert snapshot", errBoom)

	results, err := f.monitor.MonitorBatch(context.Background(), []string{"alice", "bob"})
	require.Error(t, err)
	assert.Empty(t, results)
	assert.Equal(t, []string{"alice"}, f.extractor.calls)
	f.assertReleasedOnce(t)
}

func TestMonitorBatchUntypedErrorSkips(t *testing.T) {
	f := newFixture()
	f.extractor.errs["alice"] = errBoom
	f.extractor.signals["bob"] = profile.Signals{Followers: 2000}

	results, err := f.monitor.MonitorBatch(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	assert.Equal(t, []Result{{Username: "bob", Status: profile.StatusGenuine}}, results)
	assert.Equal(t, []string{"alice"}, f.failures.identifiers)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Failures.WithLabelValues("unexpected")))
}

func TestMonitorBatchPublishFailureKeepsResult(t *testing.T) {
	f := newFixture()
	f.publisher.publishErr = errBoom
	f.extractor.signals["alice"] = profile.Signals{Followers: 5000}

	results, err := f.monitor.MonitorBatch(context.Background(), []string{"alice"})
	require.NoError(t, err)

	assert.Len(t, results, 1)
	assert.Len(t, f.opener.store.records, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PublishFailures))
}

func TestMonitorBatchWithoutOptionalServices(t *testing.T) {
	launcher := &MockLauncher{session: &MockSession{}}
	opener := &MockOpener{store: &MockStore{}}
	extractor := NewMockExtractor()
	extractor.errs["alice"] = apperrors.NewHeaderNotFound("alice")
	delay := &delayRecorder{}

	m := NewMonitor(internal.Dependencies{Launcher: launcher, Store: opener}, extractor, delay.policy(), nil)

	results, err := m.MonitorBatch(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, []Result{{Username: "bob", Status: profile.StatusFake}}, results)
}

func TestMonitorBatchCancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.monitor.MonitorBatch(ctx, []string{"alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Empty(t, f.extractor.calls)
	f.assertReleasedOnce(t)
}
