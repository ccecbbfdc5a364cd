package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botlist/internal/common/errors"
)

// noRowCountDriver is a stub driver whose results cannot report how many
// rows they affected, as some backends and statement types cannot.
type noRowCountDriver struct{}

func (noRowCountDriver) Open(name string) (driver.Conn, error) { return noRowCountConn{}, nil }

type noRowCountConn struct{}

func (noRowCountConn) Prepare(query string) (driver.Stmt, error) { return noRowCountStmt{}, nil }
func (noRowCountConn) Close() error                              { return nil }
func (noRowCountConn) Begin() (driver.Tx, error) {
	return nil, stderrors.New("transactions not supported")
}

type noRowCountStmt struct{}

func (noRowCountStmt) Close() error  { return nil }
func (noRowCountStmt) NumInput() int { return -1 }
func (noRowCountStmt) Exec(args []driver.Value) (driver.Result, error) {
	return noRowCountResult{}, nil
}
func (noRowCountStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, stderrors.New("queries not supported")
}

type noRowCountResult struct{}

func (noRowCountResult) LastInsertId() (int64, error) { return 0, nil }
func (noRowCountResult) RowsAffected() (int64, error) {
	return 0, stderrors.New("row count not available")
}

func init() {
	sql.Register("norowcount", noRowCountDriver{})
}

func TestPurgeOlderThanSurfacesRowCountError(t *testing.T) {
	db, err := sql.Open("norowcount", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &sqlStore{db: db, q: queries{
		purge: `DELETE FROM votes WHERE received_at < ?`,
	}}

	removed, err := store.PurgeOlderThan(context.Background(), time.Now())
	require.Error(t, err)
	assert.Zero(t, removed)
	assert.True(t, errors.IsType(err, errors.ErrTypeNetwork))
	assert.Contains(t, err.Error(), "failed to count purged votes")
}
