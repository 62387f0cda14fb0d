package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/logger"
	apperrors "sjsage522/profilewatch/pkg/errors"
)

const (
	DefaultProfileURLTemplate = "https://x.com/%s/"
	DefaultPageReadyTimeout   = 15 * time.Second
	DefaultSettlePause        = 2 * time.Second
)

// ExtractorConfig contains configuration for an extractor
type ExtractorConfig struct {
	ProfileURLTemplate string
	PageReadyTimeout   time.Duration
	SettlePause        helpers.DelayPolicy
	Fields             FieldLocators
}

// DefaultExtractorConfig returns the compiled-in extraction settings
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		ProfileURLTemplate: DefaultProfileURLTemplate,
		PageReadyTimeout:   DefaultPageReadyTimeout,
		SettlePause:        helpers.FixedDelay(DefaultSettlePause),
		Fields:             DefaultFieldLocators(),
	}
}

// Extractor turns a profile page into a ProfileRecord
type Extractor struct {
	config   ExtractorConfig
	resolver *Resolver
	popup    *PopupDismisser
	labeler  Labeler
	log      *logger.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(config ExtractorConfig, resolver *Resolver, popup *PopupDismisser, labeler Labeler) *Extractor {
	if config.ProfileURLTemplate == "" {
		config.ProfileURLTemplate = DefaultProfileURLTemplate
	}
	if config.PageReadyTimeout <= 0 {
		config.PageReadyTimeout = DefaultPageReadyTimeout
	}
	return &Extractor{
		config:   config,
		resolver: resolver,
		popup:    popup,
		labeler:  labeler,
		log:      logger.ForExtractor(),
	}
}

// ProfileURL returns the page address of identifier
func (e *Extractor) ProfileURL(identifier string) string {
	return fmt.Sprintf(e.config.ProfileURLTemplate, url.PathEscape(identifier))
}

// Extract navigates to the profile of identifier and builds its record.
// Every failure is returned as a *errors.ProfileError and no partial record is produced.
func (e *Extractor) Extract(ctx context.Context, d Driver, identifier string) (record ProfileRecord, err error) {
	log := e.log.WithField("username", identifier)

	defer func() {
		if rec := recover(); rec != nil {
			record = ProfileRecord{}
			err = apperrors.NewUnexpected(identifier, "extraction panicked", fmt.Errorf("%v", rec))
		}
	}()

	if err := d.Navigate(ctx, e.ProfileURL(identifier)); err != nil {
		return ProfileRecord{}, e.classifyFailure(identifier, "navigate to profile", err)
	}
	if err := d.WaitReady(ctx, e.config.PageReadyTimeout); err != nil {
		return ProfileRecord{}, e.classifyFailure(identifier, "wait for document ready", err)
	}

	if e.popup != nil {
		e.popup.Dismiss(ctx, d)
	}
	helpers.Pause(ctx, e.config.SettlePause, 0)

	if _, ok := e.resolver.Resolve(ctx, d, e.config.Fields.Header); !ok {
		if ctx.Err() != nil {
			return ProfileRecord{}, e.classifyFailure(identifier, "resolve user header", ctx.Err())
		}
		log.Info().Msg("User header not found")
		return ProfileRecord{}, apperrors.NewHeaderNotFound(identifier)
	}

	signals := Signals{
		Followers:     e.count(ctx, d, log, "followers", e.config.Fields.Followers),
		Following:     e.count(ctx, d, log, "following", e.config.Fields.Following),
		Subscriptions: e.count(ctx, d, log, "subscriptions", e.config.Fields.Subscriptions),
	}
	_, signals.Verified = e.resolver.Resolve(ctx, d, e.config.Fields.Verified)

	record = NewRecord(identifier, signals, e.labeler)

	log.Debug().
		Int64("followers", signals.Followers).
		Int64("following", signals.Following).
		Int64("subscriptions", signals.Subscriptions).
		Bool("verified", signals.Verified).
		Str("status", string(record.Status())).
		Msg("Extracted profile")

	return record, nil
}

// count resolves a count field and parses its text, defaulting to 0
func (e *Extractor) count(ctx context.Context, d Driver, log *logger.Logger, field string, candidates []Locator) int64 {
	el, ok := e.resolver.Resolve(ctx, d, candidates)
	if !ok {
		log.Debug().Str("field", field).Msg("Count field not found, defaulting to 0")
		return 0
	}

	text, err := el.Text(ctx)
	if err != nil {
		log.Debug().Str("field", field).Err(err).Msg("Could not read count text, defaulting to 0")
		return 0
	}
	return ParseCount(strings.TrimSpace(text))
}

// classifyFailure maps a driver error onto the error taxonomy.
// A vanished browser session is fatal to the batch, everything else only to identifier.
func (e *Extractor) classifyFailure(identifier, message string, err error) error {
	if errors.Is(err, ErrSessionClosed) {
		return apperrors.New(apperrors.ErrorTypeSession, identifier, message, err)
	}
	return apperrors.NewNavigation(identifier, message, err)
}
