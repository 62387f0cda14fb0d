package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal/browser"
	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/services/publisher"
	"sjsage522/profilewatch/services/store"
)

// MockSession implements browser.Session for testing
type MockSession struct {
	closeCount int
}

var _ browser.Session = (*MockSession)(nil)

func (m *MockSession) Navigate(context.Context, string) error { return nil }

func (m *MockSession) WaitReady(context.Context, time.Duration) error { return nil }

func (m *MockSession) Find(context.Context, profile.Locator, time.Duration) (profile.Element, error) {
	return nil, profile.ErrElementNotFound
}

func (m *MockSession) Close() error {
	m.closeCount++
	return nil
}

// MockLauncher implements browser.Launcher for testing
type MockLauncher struct {
	session   *MockSession
	launchErr error
	launches  int
}

var _ browser.Launcher = (*MockLauncher)(nil)

func (m *MockLauncher) Launch(context.Context) (browser.Session, error) {
	m.launches++
	if m.launchErr != nil {
		return nil, m.launchErr
	}
	return m.session, nil
}

// MockStore implements store.Store for testing
type MockStore struct {
	records    []profile.ProfileRecord
	insertErr  error
	closeCount int
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) Insert(_ context.Context, record profile.ProfileRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *MockStore) Close() error {
	m.closeCount++
	return nil
}

// MockOpener implements store.Opener for testing
type MockOpener struct {
	store   *MockStore
	openErr error
	opens   int
}

var _ store.Opener = (*MockOpener)(nil)

func (m *MockOpener) Open(context.Context) (store.Store, error) {
	m.opens++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.store, nil
}

// MockExtractor returns canned signals or errors per identifier
type MockExtractor struct {
	signals map[string]profile.Signals
	errs    map[string]error
	calls   []string
}

var _ Extractor = (*MockExtractor)(nil)

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		signals: make(map[string]profile.Signals),
		errs:    make(map[string]error),
	}
}

func (m *MockExtractor) Extract(_ context.Context, _ profile.Driver, identifier string) (profile.ProfileRecord, error) {
	m.calls = append(m.calls, identifier)
	if err, ok := m.errs[identifier]; ok {
		return profile.ProfileRecord{}, err
	}
	return profile.NewRecord(identifier, m.signals[identifier], followerLabeler{}), nil
}

// followerLabeler marks profiles with at least 1000 followers as genuine
type followerLabeler struct{}

func (followerLabeler) Label(s profile.Signals) profile.Status {
	if s.Followers >= 1000 {
		return profile.StatusGenuine
	}
	return profile.StatusFake
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu         sync.Mutex
	messages   [][]byte
	publishErr error
	trims      int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}

	// Copy the message to ensure thread safety
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages = append(m.messages, messageCopy)
	return nil
}

func (m *MockPublisher) TrimStream(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockFailureLog implements helpers.FailureLogger for testing
type MockFailureLog struct {
	identifiers []string
}

var _ helpers.FailureLogger = (*MockFailureLog)(nil)

func (m *MockFailureLog) LogFailure(identifier string, _ error) {
	m.identifiers = append(m.identifiers, identifier)
}

// delayRecorder counts pauses without sleeping
type delayRecorder struct {
	attempts []int
}

func (d *delayRecorder) policy() helpers.DelayPolicy {
	return func(attempt int) time.Duration {
		d.attempts = append(d.attempts, attempt)
		return 0
	}
}

var errBoom = errors.New("boom")
