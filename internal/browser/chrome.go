package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/logger"
	apperrors "sjsage522/profilewatch/pkg/errors"
)

const (
	documentReadyStateScript       = "document.readyState"
	documentReadyStateComplete     = "complete"
	documentReadyStatePollInterval = 100 * time.Millisecond
	forceClickFunction             = "function() { this.click(); }"

	defaultNavigateTimeout  = 30 * time.Second
	defaultElementOpTimeout = 10 * time.Second
)

// ChromeConfig contains configuration for headless Chrome sessions
type ChromeConfig struct {
	ExecPath        string
	Headless        bool
	UserAgent       string // random per session when empty
	NavigateTimeout time.Duration
}

// ChromeLauncher starts Chrome through the DevTools protocol
type ChromeLauncher struct {
	config ChromeConfig
	log    *logger.Logger
}

var _ Launcher = (*ChromeLauncher)(nil)

// NewChromeLauncher creates a new Chrome launcher
func NewChromeLauncher(config ChromeConfig) *ChromeLauncher {
	if config.NavigateTimeout <= 0 {
		config.NavigateTimeout = defaultNavigateTimeout
	}
	return &ChromeLauncher{
		config: config,
		log:    logger.ForBrowser(),
	}
}

// Launch starts a browser process and returns a session bound to it.
// The browser lives until Close is called or ctx is done.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	userAgent := l.config.UserAgent
	if userAgent == "" {
		userAgent = helpers.RandomUserAgent()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("allow-running-insecure-content", true),
		chromedp.UserAgent(userAgent),
	)
	if l.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.config.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			l.log.Debug().Msgf(format, args...)
		}),
	)

	// Run without actions starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, apperrors.NewSession("start browser", err)
	}

	l.log.Info().
		Bool("headless", l.config.Headless).
		Str("user_agent", userAgent).
		Msg("Browser session started")

	return &ChromeSession{
		ctx:             browserCtx,
		cancel:          cancel,
		allocCancel:     allocCancel,
		navigateTimeout: l.config.NavigateTimeout,
		log:             l.log,
	}, nil
}

// ChromeSession drives one Chrome tab
type ChromeSession struct {
	ctx             context.Context
	cancel          context.CancelFunc
	allocCancel     context.CancelFunc
	navigateTimeout time.Duration
	closeOnce       sync.Once
	closeErr        error
	log             *logger.Logger
}

var _ Session = (*ChromeSession)(nil)

// Navigate loads url and waits for the load event
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(s.ctx, s.navigateTimeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Navigate(url)); err != nil {
		return s.wrap(fmt.Errorf("navigate %s: %w", url, err))
	}
	return nil
}

// WaitReady polls document.readyState until it reports complete
func (s *ChromeSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(documentReadyStatePollInterval)
	defer ticker.Stop()

	for {
		var state string
		if err := chromedp.Run(tctx, chromedp.Evaluate(documentReadyStateScript, &state)); err != nil {
			return s.wrap(fmt.Errorf("read document state: %w", err))
		}
		if state == documentReadyStateComplete {
			return nil
		}

		select {
		case <-tctx.Done():
			return s.wrap(fmt.Errorf("document state %q after %s: %w", state, timeout, tctx.Err()))
		case <-ticker.C:
		}
	}
}

// Find waits up to timeout for the first node matching loc
func (s *ChromeSession) Find(ctx context.Context, loc profile.Locator, timeout time.Duration) (profile.Element, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}

	var by chromedp.QueryOption
	switch loc.Strategy {
	case profile.ByXPath:
		by = chromedp.BySearch
	case profile.ByCSS:
		by = chromedp.ByQuery
	default:
		return nil, fmt.Errorf("%s: %w", loc.Strategy, profile.ErrUnsupportedStrategy)
	}

	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(tctx, chromedp.Nodes(loc.Value, &nodes, by)); err != nil {
		if s.ctx.Err() != nil {
			return nil, s.wrap(err)
		}
		return nil, fmt.Errorf("%s: %w", loc, profile.ErrElementNotFound)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, profile.ErrElementNotFound)
	}
	return &chromeElement{session: s, node: nodes[0]}, nil
}

// Close shuts the browser down. Further calls return the first result.
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
		s.log.Info().Msg("Browser session closed")
	})
	return s.closeErr
}

func (s *ChromeSession) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return profile.ErrSessionClosed
	}
	return nil
}

// wrap marks err as a closed session when the browser context is gone
func (s *ChromeSession) wrap(err error) error {
	if s.ctx.Err() != nil && !errors.Is(err, profile.ErrSessionClosed) {
		return fmt.Errorf("%w: %v", profile.ErrSessionClosed, err)
	}
	return err
}

type chromeElement struct {
	session *ChromeSession
	node    *cdp.Node
}

func (e *chromeElement) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := e.session.usable(ctx); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(e.session.ctx, defaultElementOpTimeout)
	defer cancel()
	return e.session.wrap(chromedp.Run(tctx, actions...))
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return text, nil
}

func (e *chromeElement) ScrollIntoView(ctx context.Context) error {
	return e.run(ctx, chromedp.ScrollIntoView(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.run(ctx, chromedp.MouseClickNode(e.node))
}

// ForceClick calls the element's click() from JavaScript, bypassing hit testing
func (e *chromeElement) ForceClick(ctx context.Context) error {
	return e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		_, exception, err := runtime.CallFunctionOn(forceClickFunction).
			WithObjectID(obj.ObjectID).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("call click: %w", err)
		}
		if exception != nil {
			return fmt.Errorf("click threw: %s", exception.Text)
		}
		return nil
	}))
}
