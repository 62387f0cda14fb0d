package browser

import (
	"context"

	"sjsage522/profilewatch/internal/profile"
)

// Session is a browser session owned by a single batch
type Session interface {
	profile.Driver
	Close() error
}

// Launcher starts browser sessions
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
