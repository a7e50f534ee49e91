package users

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/errs"
)

func TestStoreByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	t.Run("returns user", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username FROM users").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(3, "carol"))

		user, err := store.ByID(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, 3, user.ID)
		require.NotNil(t, user.Username)
		require.Equal(t, "carol", *user.Username)
	})

	t.Run("missing user maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username FROM users").
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

		_, err := store.ByID(ctx, 99)
		require.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCredential(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	salt := bytes.Repeat([]byte{0x11}, auth.CredentialLength)
	hash := bytes.Repeat([]byte{0x22}, auth.CredentialLength)

	t.Run("returns credential", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, salt, pbkdf2 FROM users").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "salt", "pbkdf2"}).
				AddRow(1, "alice", salt, hash))

		cred, err := store.Credential(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, 1, cred.UserID)
		require.Equal(t, "alice", cred.Username)
		require.Equal(t, salt, cred.Salt)
		require.Equal(t, hash, cred.Hash)
	})

	t.Run("unknown username maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, salt, pbkdf2 FROM users").
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "salt", "pbkdf2"}))

		_, err := store.Credential(ctx, "nobody")
		require.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
	})

	t.Run("short salt reported corrupt", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, salt, pbkdf2 FROM users").
			WithArgs("mallory").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "salt", "pbkdf2"}).
				AddRow(2, "mallory", []byte{0x01, 0x02}, hash))

		_, err := store.Credential(ctx, "mallory")
		require.True(t, errors.Is(err, errs.ErrCorruptCredential), "got %v", err)
	})

	t.Run("short hash reported corrupt", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, salt, pbkdf2 FROM users").
			WithArgs("trent").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "salt", "pbkdf2"}).
				AddRow(4, "trent", salt, []byte{0x01}))

		_, err := store.Credential(ctx, "trent")
		require.True(t, errors.Is(err, errs.ErrCorruptCredential), "got %v", err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdatePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	salt := bytes.Repeat([]byte{0x33}, auth.CredentialLength)
	hash := bytes.Repeat([]byte{0x44}, auth.CredentialLength)

	t.Run("replaces pair in one statement", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET salt").
			WithArgs(salt, hash, "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.UpdatePassword(ctx, "alice", salt, hash))
	})

	t.Run("unknown username maps to not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET salt").
			WithArgs(salt, hash, "nobody").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdatePassword(ctx, "nobody", salt, hash)
		require.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
	})

	t.Run("refuses wrong-length material without touching the database", func(t *testing.T) {
		err := store.UpdatePassword(ctx, "alice", []byte{0x01}, hash)
		require.True(t, errors.Is(err, errs.ErrCorruptCredential), "got %v", err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
