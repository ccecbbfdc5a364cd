package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"botlist/internal/common/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS votes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	voter_id TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'upvote',
	is_weekend BOOLEAN NOT NULL DEFAULT 0,
	received_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_votes_voter ON votes(voter_id, received_at);
CREATE INDEX IF NOT EXISTS idx_votes_received ON votes(received_at);
`

// NewSQLite opens (and migrates) a SQLite-backed vote store at the given
// path.
func NewSQLite(path string) (Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.NetworkError("failed to open sqlite database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NetworkError("failed to ping sqlite database", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.NetworkError("failed to migrate sqlite database", err)
	}

	return &sqlStore{
		db: db,
		q: queries{
			insertVote: `INSERT INTO votes (voter_id, receiver_id, kind, is_weekend, received_at)
				VALUES (?, ?, ?, ?, ?)`,
			hasVotedSince: `SELECT COUNT(1) FROM votes WHERE voter_id = ? AND received_at >= ?`,
			listRecent: `SELECT id, voter_id, receiver_id, kind, is_weekend, received_at
				FROM votes ORDER BY received_at DESC, id DESC LIMIT ? OFFSET ?`,
			countVotes: `SELECT COUNT(1) FROM votes`,
			purge:      `DELETE FROM votes WHERE received_at < ?`,
		},
	}, nil
}
