package store

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/logger"
	apperrors "sjsage522/profilewatch/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT,
    followers_count INTEGER,
    following_count INTEGER,
    subscriptions_count INTEGER,
    is_verified BOOLEAN,
    status TEXT,
    scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username);
`

const insertProfile = `
INSERT INTO profiles (username, followers_count, following_count, subscriptions_count, is_verified, status)
VALUES (?, ?, ?, ?, ?, ?)`

// SQLiteOpener opens SQLite databases at a fixed path
type SQLiteOpener struct {
	path string
}

var _ Opener = (*SQLiteOpener)(nil)

// NewSQLiteOpener creates a new opener for the database file at path
func NewSQLiteOpener(path string) *SQLiteOpener {
	return &SQLiteOpener{path: path}
}

// Open connects to the database and creates the schema if needed
func (o *SQLiteOpener) Open(ctx context.Context) (Store, error) {
	log := logger.ForStore()

	db, err := sql.Open("sqlite3", o.path)
	if err != nil {
		return nil, apperrors.NewStorage("", "open database", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		log.Warn().Err(err).Msg("Failed to set WAL mode")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorage("", "create schema", err)
	}

	return &SQLiteStore{db: db, log: log}, nil
}

// SQLiteStore writes snapshots to the profiles table
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
	log       *logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Insert appends a snapshot row
func (s *SQLiteStore) Insert(ctx context.Context, record profile.ProfileRecord) error {
	_, err := s.db.ExecContext(ctx, insertProfile,
		record.Username(),
		record.FollowersCount(),
		record.FollowingCount(),
		record.SubscriptionsCount(),
		record.IsVerified(),
		string(record.Status()),
	)
	if err != nil {
		return apperrors.NewStorage(record.Username(), "insert snapshot", err)
	}

	s.log.Debug().
		Str("username", record.Username()).
		Str("status", string(record.Status())).
		Msg("Snapshot stored")
	return nil
}

// Close closes the database. Further calls return the first result.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
