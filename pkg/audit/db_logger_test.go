package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newTestDBLogger(t *testing.T) (*DBLogger, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_log").
		WillReturnResult(sqlmock.NewResult(0, 0))

	logger, err := NewDBLogger(db)
	require.NoError(t, err)
	return logger, mock
}

func TestDBLoggerLog(t *testing.T) {
	logger, mock := newTestDBLogger(t)
	ctx := context.Background()

	t.Run("inserts event and assigns id", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO audit_log").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

		event := NewEvent(EventTypeAuthLogin, EventStatusSuccess)
		event.Username = "alice"
		require.NoError(t, logger.Log(ctx, event))
		require.Equal(t, int64(17), event.ID)
	})

	t.Run("login failure event", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO audit_log").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(18)))

		err := logger.LogAuthentication(ctx, EventTypeAuthLoginFailed, "mallory", EventStatusFailure, "bad credentials")
		require.NoError(t, err)
	})

	t.Run("authorization denial event", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO audit_log").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(19)))

		err := logger.LogAuthorization(ctx, "mallory", ResourceTypeMemoGroup, "7", EventStatusDenied, "insufficient access level")
		require.NoError(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerSearch(t *testing.T) {
	logger, mock := newTestDBLogger(t)
	ctx := context.Background()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, timestamp, event_type, status").
		WithArgs("alice", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "timestamp", "event_type", "status",
			"username", "target_username", "resource_type", "resource_id",
			"ip_address", "request_id", "message", "metadata",
		}).AddRow(int64(3), now, "auth.login", "success",
			"alice", nil, nil, nil, "10.0.0.1", "req-1", "logged in", nil))

	events, err := logger.Search(ctx, SearchFilter{Username: "alice", Limit: 50})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventTypeAuthLogin, events[0].EventType)
	require.Equal(t, "alice", events[0].Username)
	require.Equal(t, "10.0.0.1", events[0].IPAddress)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerCleanup(t *testing.T) {
	logger, mock := newTestDBLogger(t)
	ctx := context.Background()

	t.Run("deletes events older than retention", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM audit_log").
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 12))

		removed, err := logger.Cleanup(ctx, RetentionPolicy{RetentionDays: 30})
		require.NoError(t, err)
		require.Equal(t, int64(12), removed)
	})

	t.Run("zero retention is a no-op", func(t *testing.T) {
		removed, err := logger.Cleanup(ctx, RetentionPolicy{})
		require.NoError(t, err)
		require.Zero(t, removed)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
