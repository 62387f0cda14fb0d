package profile

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockElement implements Element for testing
type MockElement struct {
	text       string
	textErr    error
	clickErr   error
	forceErr   error
	clicks     int
	forced     int
	scrolled   int
	panicOnTap bool
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	return m.text, m.textErr
}

func (m *MockElement) ScrollIntoView(ctx context.Context) error {
	m.scrolled++
	return nil
}

func (m *MockElement) Click(ctx context.Context) error {
	if m.panicOnTap {
		panic("detached node")
	}
	m.clicks++
	return m.clickErr
}

func (m *MockElement) ForceClick(ctx context.Context) error {
	m.forced++
	return m.forceErr
}

// MockDriver implements Driver over a fixed locator-value -> element map
type MockDriver struct {
	mu          sync.Mutex
	elements    map[string]*MockElement
	navigateErr error
	readyErr    error
	findErr     map[string]error
	panicOnFind string
	visited     []string
	queries     []string
}

func NewMockDriver(elements map[string]*MockElement) *MockDriver {
	return &MockDriver{
		elements: elements,
		findErr:  make(map[string]error),
	}
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	m.visited = append(m.visited, url)
	return m.navigateErr
}

func (m *MockDriver) WaitReady(ctx context.Context, timeout time.Duration) error {
	return m.readyErr
}

func (m *MockDriver) Find(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, loc.Value)
	if loc.Value == m.panicOnFind {
		panic("driver crashed")
	}
	if err, ok := m.findErr[loc.Value]; ok {
		return nil, err
	}
	if el, ok := m.elements[loc.Value]; ok {
		return el, nil
	}
	return nil, ErrElementNotFound
}

func (m *MockDriver) queryCount(value string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, q := range m.queries {
		if q == value {
			n++
		}
	}
	return n
}

// followerLabeler labels accounts with at least 1000 followers as genuine
type followerLabeler struct{}

func (followerLabeler) Label(s Signals) Status {
	if s.Followers >= 1000 {
		return StatusGenuine
	}
	return StatusFake
}

var errBoom = errors.New("boom")
