package internal

import (
	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal/browser"
	"sjsage522/profilewatch/services/cache"
	"sjsage522/profilewatch/services/publisher"
	"sjsage522/profilewatch/services/store"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Launcher  browser.Launcher
	Store     store.Opener
	Publisher publisher.Publisher   // optional
	Cache     cache.CacheService    // optional
	Failures  helpers.FailureLogger // optional
}
