package aresmysql

import (
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// newTestEnv wires a session registry against a sqlmock-backed pool
// registered under the name "test".
func newTestEnv(t *testing.T, settings Settings) (*SessionRegistry, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pools := NewPoolRegistry()
	pool := NewPoolFromDB(db, settings)
	_, err = pools.GetOrCreate("test", func() (*Pool, error) { return pool, nil })
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := NewSessionRegistry(pools, logger)
	sessions.RegisterSettings("test", settings)
	return sessions, mock
}
