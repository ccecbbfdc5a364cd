package storage

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"botlist/internal/common/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS votes (
	id BIGSERIAL PRIMARY KEY,
	voter_id TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'upvote',
	is_weekend BOOLEAN NOT NULL DEFAULT FALSE,
	received_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_votes_voter ON votes(voter_id, received_at);
CREATE INDEX IF NOT EXISTS idx_votes_received ON votes(received_at);
`

// NewPostgres opens (and migrates) a PostgreSQL-backed vote store using the
// pgx driver.
func NewPostgres(url string) (Storage, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, errors.NetworkError("failed to open postgres database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NetworkError("failed to ping postgres database", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, errors.NetworkError("failed to migrate postgres database", err)
	}

	return &sqlStore{
		db: db,
		q: queries{
			insertVote: `INSERT INTO votes (voter_id, receiver_id, kind, is_weekend, received_at)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			insertReturns: true,
			hasVotedSince: `SELECT COUNT(1) FROM votes WHERE voter_id = $1 AND received_at >= $2`,
			listRecent: `SELECT id, voter_id, receiver_id, kind, is_weekend, received_at
				FROM votes ORDER BY received_at DESC, id DESC LIMIT $1 OFFSET $2`,
			countVotes: `SELECT COUNT(1) FROM votes`,
			purge:      `DELETE FROM votes WHERE received_at < $1`,
		},
	}, nil
}
