package files

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/organizator/organizator/pkg/errs"
)

func TestStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	id := uuid.New()
	groupID := 4

	mock.ExpectExec("INSERT INTO filestore").
		WithArgs(id, "alice", "notes.pdf", 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, err := store.Insert(ctx, id, "alice", "notes.pdf", &groupID)
	require.NoError(t, err)
	require.Equal(t, id, rec.ID)
	require.Equal(t, "notes.pdf", rec.Filename)
	require.NotZero(t, rec.Savetime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	id := uuid.New()

	t.Run("returns record", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, filename, memo_group_id, savetime").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "filename", "memo_group_id", "savetime"}).
				AddRow(id.String(), "alice", "notes.pdf", 4, int64(1700000000123)))

		rec, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, rec.ID)
		require.Equal(t, "alice", rec.Username)
		require.Equal(t, 4, *rec.GroupID)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery("SELECT id, username, filename, memo_group_id, savetime").
			WithArgs(missing).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "filename", "memo_group_id", "savetime"}))

		_, err := store.Get(ctx, missing)
		require.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreForGroup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery("FROM filestore").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "filename", "memo_group_id", "savetime"}).
			AddRow(a.String(), "alice", "new.txt", 4, int64(200)).
			AddRow(b.String(), "bob", "old.txt", 4, int64(100)))

	recs, err := store.ForGroup(ctx, 4)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, a, recs[0].ID)
	require.Equal(t, "bob", recs[1].Username)

	require.NoError(t, mock.ExpectationsWereMet())
}
