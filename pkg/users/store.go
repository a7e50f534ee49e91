package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/errs"
)

// User is a user account as exposed to handlers.
type User struct {
	ID       int     `json:"id"`
	Username *string `json:"username"`
}

// Credential is a user's stored password material.
type Credential struct {
	UserID   int
	Username string
	Salt     []byte
	Hash     []byte
}

// Store reads and writes users and credentials in postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a new user store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ByID returns the user with the given id.
func (s *Store) ByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT id, username FROM users WHERE id = $1`

	var u User
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("user by id: %w", err))
	}
	return &u, nil
}

// ByUsername returns the user with the given username.
func (s *Store) ByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username FROM users WHERE username = $1`

	var u User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("user by username: %w", err))
	}
	return &u, nil
}

// List returns all users ordered by id.
func (s *Store) List(ctx context.Context) ([]User, error) {
	query := `SELECT id, username FROM users ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("list users: %w", err))
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, errs.FromPG(fmt.Errorf("scan user: %w", err))
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FromPG(fmt.Errorf("list users: %w", err))
	}
	return out, nil
}

// Credential returns the stored password material for username. A record
// whose salt or hash is not exactly the digest length is reported as
// corrupt; verification against it could never succeed.
func (s *Store) Credential(ctx context.Context, username string) (*Credential, error) {
	query := `SELECT id, username, salt, pbkdf2 FROM users WHERE username = $1`

	var c Credential
	err := s.db.QueryRowContext(ctx, query, username).Scan(&c.UserID, &c.Username, &c.Salt, &c.Hash)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("credential for %s: %w", username, err))
	}

	if len(c.Salt) != auth.CredentialLength || len(c.Hash) != auth.CredentialLength {
		return nil, fmt.Errorf("%w: salt %d bytes, hash %d bytes (want %d each)",
			errs.ErrCorruptCredential, len(c.Salt), len(c.Hash), auth.CredentialLength)
	}

	return &c, nil
}

// UpdatePassword replaces the salt and hash pair for username in a single
// statement. The pair is never partially updated.
func (s *Store) UpdatePassword(ctx context.Context, username string, salt, hash []byte) error {
	if len(salt) != auth.CredentialLength || len(hash) != auth.CredentialLength {
		return fmt.Errorf("%w: refusing to store salt %d bytes, hash %d bytes",
			errs.ErrCorruptCredential, len(salt), len(hash))
	}

	query := `UPDATE users SET salt = $1, pbkdf2 = $2 WHERE username = $3`

	result, err := s.db.ExecContext(ctx, query, salt, hash, username)
	if err != nil {
		return errs.FromPG(fmt.Errorf("update password for %s: %w", username, err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errs.FromPG(fmt.Errorf("update password for %s: %w", username, err))
	}
	if affected == 0 {
		return fmt.Errorf("%w: no user named %s", errs.ErrNotFound, username)
	}
	return nil
}
