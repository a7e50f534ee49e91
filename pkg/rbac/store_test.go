package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/organizator/organizator/pkg/errs"
)

func TestStoreMemoGroupOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	t.Run("returns owner username", func(t *testing.T) {
		mock.ExpectQuery("SELECT u.username").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("alice"))

		owner, err := store.MemoGroupOwner(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, "alice", owner)
	})

	t.Run("missing group maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT u.username").
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"username"}))

		_, err := store.MemoGroupOwner(ctx, 42)
		require.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGrantLevels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	t.Run("returns every applicable grant", func(t *testing.T) {
		mock.ExpectQuery("SELECT a.access_level").
			WithArgs(7, "bob").
			WillReturnRows(sqlmock.NewRows([]string{"access_level"}).AddRow(2).AddRow(5))

		levels, err := store.GrantLevels(ctx, 7, "bob")
		require.NoError(t, err)
		require.Equal(t, []AccessLevel{2, 5}, levels)
	})

	t.Run("no grants yields empty set, not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT a.access_level").
			WithArgs(7, "mallory").
			WillReturnRows(sqlmock.NewRows([]string{"access_level"}))

		levels, err := store.GrantLevels(ctx, 7, "mallory")
		require.NoError(t, err)
		require.Empty(t, levels)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFileOwnerAndGroup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()
	fileID := uuid.New()

	t.Run("attached file", func(t *testing.T) {
		mock.ExpectQuery("SELECT u.username, fs.memo_group_id").
			WithArgs(fileID).
			WillReturnRows(sqlmock.NewRows([]string{"username", "memo_group_id"}).AddRow("alice", 7))

		owner, groupID, err := store.FileOwnerAndGroup(ctx, fileID)
		require.NoError(t, err)
		require.Equal(t, "alice", owner)
		require.NotNil(t, groupID)
		require.Equal(t, 7, *groupID)
	})

	t.Run("unattached file has nil group", func(t *testing.T) {
		mock.ExpectQuery("SELECT u.username, fs.memo_group_id").
			WithArgs(fileID).
			WillReturnRows(sqlmock.NewRows([]string{"username", "memo_group_id"}).AddRow("alice", nil))

		owner, groupID, err := store.FileOwnerAndGroup(ctx, fileID)
		require.NoError(t, err)
		require.Equal(t, "alice", owner)
		require.Nil(t, groupID)
	})

	t.Run("unknown file maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT u.username, fs.memo_group_id").
			WithArgs(fileID).
			WillReturnRows(sqlmock.NewRows([]string{"username", "memo_group_id"}))

		_, _, err := store.FileOwnerAndGroup(ctx, fileID)
		require.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreExplicitGrants(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT memo_group_id, user_group_id, access_level").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"memo_group_id", "user_group_id", "access_level"}).
			AddRow(7, 1, 2).
			AddRow(7, 3, 5))

	grants, err := store.ExplicitGrants(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []AccessGrant{
		{ResourceGroupID: 7, UserGroupID: 1, Level: 2},
		{ResourceGroupID: 7, UserGroupID: 3, Level: 5},
	}, grants)
	require.NoError(t, mock.ExpectationsWereMet())
}
