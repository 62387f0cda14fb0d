package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/logger"
)

// FetchFunc retrieves a page body
type FetchFunc func(url string) (io.Reader, error)

var (
	errNoDocument     = errors.New("no document loaded")
	errNotInteractive = errors.New("static document elements cannot be clicked")
)

// StaticLauncher creates sessions over server-rendered HTML. Only CSS
// locators are supported and nothing executes on the page.
type StaticLauncher struct {
	fetch FetchFunc
}

var _ Launcher = (*StaticLauncher)(nil)

// NewStaticLauncher creates a new static launcher. A nil fetch uses
// helpers.FetchWithRandomHeaders.
func NewStaticLauncher(fetch FetchFunc) *StaticLauncher {
	if fetch == nil {
		fetch = helpers.FetchWithRandomHeaders
	}
	return &StaticLauncher{fetch: fetch}
}

// Launch returns a new document session
func (l *StaticLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &DocumentSession{
		fetch: l.fetch,
		log:   logger.ForBrowser(),
	}, nil
}

// DocumentSession holds the most recently fetched page as a goquery document
type DocumentSession struct {
	fetch  FetchFunc
	mu     sync.Mutex
	doc    *goquery.Document
	closed bool
	log    *logger.Logger
}

var _ Session = (*DocumentSession)(nil)

// Navigate fetches and parses url
func (s *DocumentSession) Navigate(ctx context.Context, url string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}

	reader, err := s.fetch(url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	s.log.Debug().Str("url", url).Msg("Document loaded")
	return nil
}

// WaitReady succeeds once a document has been parsed
func (s *DocumentSession) WaitReady(ctx context.Context, _ time.Duration) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return errNoDocument
	}
	return nil
}

// Find returns the first node matching a CSS locator. A parsed document
// never changes, so the timeout is not waited on.
func (s *DocumentSession) Find(ctx context.Context, loc profile.Locator, _ time.Duration) (profile.Element, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if loc.Strategy != profile.ByCSS {
		return nil, fmt.Errorf("%s: %w", loc.Strategy, profile.ErrUnsupportedStrategy)
	}

	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return nil, errNoDocument
	}

	sel := doc.Find(loc.Value).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", loc, profile.ErrElementNotFound)
	}
	return &documentElement{sel: sel}, nil
}

// Close releases the document. Calling it again is a no-op.
func (s *DocumentSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.doc = nil
	return nil
}

func (s *DocumentSession) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return profile.ErrSessionClosed
	}
	return nil
}

type documentElement struct {
	sel *goquery.Selection
}

func (e *documentElement) Text(context.Context) (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *documentElement) ScrollIntoView(context.Context) error { return nil }

func (e *documentElement) Click(context.Context) error { return errNotInteractive }

func (e *documentElement) ForceClick(context.Context) error { return errNotInteractive }
