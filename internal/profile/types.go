package profile

import (
	"context"
	"errors"
	"time"
)

// Strategy names how a locator value is interpreted by a driver
type Strategy string

const (
	ByXPath Strategy = "xpath"
	ByCSS   Strategy = "css"
)

// Locator describes one way of finding an element on a rendered page
type Locator struct {
	Strategy Strategy
	Value    string
}

// XPath creates an XPath locator
func XPath(value string) Locator {
	return Locator{Strategy: ByXPath, Value: value}
}

// CSS creates a CSS selector locator
func CSS(value string) Locator {
	return Locator{Strategy: ByCSS, Value: value}
}

func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Value
}

var (
	// ErrElementNotFound is returned by a driver when no element matches before the timeout
	ErrElementNotFound = errors.New("element not found")
	// ErrUnsupportedStrategy is returned by a driver that cannot evaluate a locator strategy
	ErrUnsupportedStrategy = errors.New("unsupported locator strategy")
	// ErrSessionClosed is returned once the underlying browser session is gone
	ErrSessionClosed = errors.New("browser session closed")
)

// Element is a handle to a node found by a driver
type Element interface {
	Text(ctx context.Context) (string, error)
	ScrollIntoView(ctx context.Context) error
	// Click performs a regular user-like click that may be intercepted by overlays
	Click(ctx context.Context) error
	// ForceClick dispatches a synthetic click bypassing interaction checks
	ForceClick(ctx context.Context) error
}

// Driver is the browser-automation surface used by the extractor
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until the document reports readyState "complete"
	WaitReady(ctx context.Context, timeout time.Duration) error
	// Find waits up to timeout for an element matching loc
	Find(ctx context.Context, loc Locator, timeout time.Duration) (Element, error)
}
