package storage

import (
	"context"
	"database/sql"
	"time"

	"botlist/internal/common/errors"
)

// queries holds the dialect-specific SQL for one backend. Both backends
// share the same schema shape; only placeholders and column types differ.
type queries struct {
	insertVote    string
	insertReturns bool // insertVote ends with RETURNING id
	hasVotedSince string
	listRecent    string
	countVotes    string
	purge         string
}

// sqlStore implements Storage over database/sql for both backends.
type sqlStore struct {
	db *sql.DB
	q  queries
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NetworkError("database ping failed", err)
	}
	return nil
}

func (s *sqlStore) RecordVote(ctx context.Context, record *VoteRecord) error {
	if record.VoterID == "" {
		return errors.ConfigError("vote record requires a voter id")
	}
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now().UTC()
	}

	args := []interface{}{
		record.VoterID, record.ReceiverID, record.Kind, record.IsWeekend, record.ReceivedAt,
	}

	if s.q.insertReturns {
		if err := s.db.QueryRowContext(ctx, s.q.insertVote, args...).Scan(&record.ID); err != nil {
			return errors.NetworkError("failed to record vote", err)
		}
		return nil
	}

	result, err := s.db.ExecContext(ctx, s.q.insertVote, args...)
	if err != nil {
		return errors.NetworkError("failed to record vote", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

func (s *sqlStore) HasVotedSince(ctx context.Context, voterID string, since time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.q.hasVotedSince, voterID, since).Scan(&count)
	if err != nil {
		return false, errors.NetworkError("failed to query votes", err)
	}
	return count > 0, nil
}

func (s *sqlStore) ListRecentVotes(ctx context.Context, limit, offset int) ([]*VoteRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, s.q.listRecent, limit, offset)
	if err != nil {
		return nil, errors.NetworkError("failed to list votes", err)
	}
	defer rows.Close()

	var records []*VoteRecord
	for rows.Next() {
		record := &VoteRecord{}
		if err := rows.Scan(&record.ID, &record.VoterID, &record.ReceiverID,
			&record.Kind, &record.IsWeekend, &record.ReceivedAt); err != nil {
			return nil, errors.DeserializationError("failed to scan vote row", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NetworkError("failed to iterate votes", err)
	}
	return records, nil
}

func (s *sqlStore) CountVotes(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, s.q.countVotes).Scan(&count); err != nil {
		return 0, errors.NetworkError("failed to count votes", err)
	}
	return count, nil
}

func (s *sqlStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q.purge, cutoff)
	if err != nil {
		return 0, errors.NetworkError("failed to purge votes", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NetworkError("failed to count purged votes", err)
	}
	return removed, nil
}
