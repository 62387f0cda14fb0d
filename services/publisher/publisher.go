package publisher

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/profilewatch/internal/profile"
)

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to the stream under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStream trims the stream to the configured maximum length
	TrimStream(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// SnapshotKey is the stream field carrying an encoded snapshot
const SnapshotKey = "b64_profile"

// Snapshot is the published form of a profile record
type Snapshot struct {
	Username      string    `json:"username"`
	Followers     int64     `json:"followers_count"`
	Following     int64     `json:"following_count"`
	Subscriptions int64     `json:"subscriptions_count"`
	Verified      bool      `json:"is_verified"`
	Status        string    `json:"status"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// NewSnapshot copies a record into its published form
func NewSnapshot(record profile.ProfileRecord, scrapedAt time.Time) Snapshot {
	return Snapshot{
		Username:      record.Username(),
		Followers:     record.FollowersCount(),
		Following:     record.FollowingCount(),
		Subscriptions: record.SubscriptionsCount(),
		Verified:      record.IsVerified(),
		Status:        string(record.Status()),
		ScrapedAt:     scrapedAt.UTC(),
	}
}

// PublishSnapshot encodes record and publishes it under SnapshotKey
func PublishSnapshot(ctx context.Context, p Publisher, record profile.ProfileRecord) error {
	data, err := json.Marshal(NewSnapshot(record, time.Now()))
	if err != nil {
		return err
	}
	return p.Publish(ctx, SnapshotKey, data)
}
