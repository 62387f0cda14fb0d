package profile

import (
	"context"
	"fmt"
	"time"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/logger"
)

// PopupCloseLocator finds the close button of the login/sign-up overlay
var PopupCloseLocator = XPath("//*[@id='layers']//button")

// PopupDismisser removes a blocking overlay when one is present
type PopupDismisser struct {
	resolver *Resolver
	locator  Locator
	settle   helpers.DelayPolicy
	log      *logger.Logger
}

// NewPopupDismisser creates a dismisser pausing by settle between scrolling and clicking
func NewPopupDismisser(resolver *Resolver, settle helpers.DelayPolicy) *PopupDismisser {
	return &PopupDismisser{
		resolver: resolver,
		locator:  PopupCloseLocator,
		settle:   settle,
		log:      logger.ForExtractor(),
	}
}

// DefaultPopupDismisser waits one second for the overlay animation
func DefaultPopupDismisser(resolver *Resolver) *PopupDismisser {
	return NewPopupDismisser(resolver, helpers.FixedDelay(time.Second))
}

// Dismiss closes the overlay if it is present. It never fails the caller.
func (p *PopupDismisser) Dismiss(ctx context.Context, d Driver) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Warn().Err(fmt.Errorf("%v", rec)).Msg("Pop-up dismissal panicked")
		}
	}()

	button, ok := p.resolver.Resolve(ctx, d, []Locator{p.locator})
	if !ok {
		p.log.Debug().Msg("No close button found, skipping pop-up closing")
		return
	}

	if err := button.ScrollIntoView(ctx); err != nil {
		p.log.Debug().Err(err).Msg("Could not scroll close button into view")
	}
	helpers.Pause(ctx, p.settle, 0)

	if err := button.Click(ctx); err != nil {
		p.log.Debug().Err(err).Msg("Close button click intercepted, forcing click")
		if err := button.ForceClick(ctx); err != nil {
			p.log.Warn().Err(err).Msg("Forced click on close button failed")
			return
		}
	}
	p.log.Debug().Msg("Pop-up closed")
}
