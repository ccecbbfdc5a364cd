// Package storage persists authenticated votes received by the webhook
// daemon, behind a backend-agnostic interface with SQLite and PostgreSQL
// implementations.
package storage

import (
	"context"
	"time"

	"botlist/internal/common/errors"
)

// VoteRecord is a persisted vote event.
type VoteRecord struct {
	ID         int64     `json:"id"`
	VoterID    string    `json:"voter_id"`
	ReceiverID string    `json:"receiver_id"`
	Kind       string    `json:"kind"`
	IsWeekend  bool      `json:"is_weekend"`
	ReceivedAt time.Time `json:"received_at"`
}

// Storage is the vote persistence interface used by the daemon.
type Storage interface {
	Close() error
	Health() error

	// RecordVote persists one vote, filling in its ID.
	RecordVote(ctx context.Context, record *VoteRecord) error
	// HasVotedSince reports whether the voter has a recorded vote at or
	// after the given time.
	HasVotedSince(ctx context.Context, voterID string, since time.Time) (bool, error)
	// ListRecentVotes returns votes newest-first.
	ListRecentVotes(ctx context.Context, limit, offset int) ([]*VoteRecord, error)
	// CountVotes returns the total number of recorded votes.
	CountVotes(ctx context.Context) (int64, error)
	// PurgeOlderThan deletes votes received before the cutoff, returning
	// the number of rows removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config selects and configures a storage backend.
type Config struct {
	// Type is "sqlite" or "postgres".
	Type string
	// Path is the SQLite database file path.
	Path string
	// URL is the PostgreSQL connection string.
	URL string
}

// New creates the storage backend named by the config.
func New(config Config) (Storage, error) {
	switch config.Type {
	case "", "sqlite":
		path := config.Path
		if path == "" {
			path = "./botlist.db"
		}
		return NewSQLite(path)
	case "postgres":
		if config.URL == "" {
			return nil, errors.ConfigError("postgres storage requires a connection url")
		}
		return NewPostgres(config.URL)
	default:
		return nil, errors.ConfigError("unknown storage type: " + config.Type)
	}
}
