package store

import (
	"context"

	"sjsage522/profilewatch/internal/profile"
)

// Store appends profile snapshots
type Store interface {
	// Insert appends one snapshot; existing rows are never updated
	Insert(ctx context.Context, record profile.ProfileRecord) error

	// Close releases the connection
	Close() error
}

// Opener opens a store connection for one batch
type Opener interface {
	Open(ctx context.Context) (Store, error)
}
