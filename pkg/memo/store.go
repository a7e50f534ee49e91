package memo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/organizator/organizator/pkg/errs"
)

// Store reads and writes memos in postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a new memo store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// visibleMemos filters to memos the user owns or holds a readable grant on.
const visibleMemos = `
	FROM memo m
	JOIN memo_group mg ON mg.id = m.memo_group_id
	WHERE mg.user_id = (SELECT id FROM users WHERE username = $1)
	   OR EXISTS (
		SELECT 1
		FROM memo_acl a
		JOIN user_group_member gm ON gm.user_group_id = a.user_group_id
		JOIN users u ON u.id = gm.user_id
		WHERE a.memo_group_id = mg.id AND u.username = $1 AND a.access_level >= 1
	   )
`

// Titles lists the memos visible to username, newest first.
func (s *Store) Titles(ctx context.Context, username string) ([]Title, error) {
	query := `SELECT m.id, m.title, mg.user_id, m.savetime` + visibleMemos + `ORDER BY m.savetime DESC NULLS LAST`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("memo titles: %w", err))
	}
	defer rows.Close()

	return scanTitles(rows)
}

// Search lists the visible memos whose title or body matches term,
// newest first.
func (s *Store) Search(ctx context.Context, username, term string) ([]Title, error) {
	query := `SELECT m.id, m.title, mg.user_id, m.savetime` + visibleMemos +
		`AND (m.title ILIKE '%' || $2 || '%' OR m.memotekst ILIKE '%' || $2 || '%')
		ORDER BY m.savetime DESC NULLS LAST`

	rows, err := s.db.QueryContext(ctx, query, username, term)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("search memos: %w", err))
	}
	defer rows.Close()

	return scanTitles(rows)
}

func scanTitles(rows *sql.Rows) ([]Title, error) {
	var out []Title
	for rows.Next() {
		var t Title
		if err := rows.Scan(&t.ID, &t.Title, &t.UserID, &t.Savetime); err != nil {
			return nil, errs.FromPG(fmt.Errorf("scan memo title: %w", err))
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FromPG(fmt.Errorf("memo titles: %w", err))
	}
	return out, nil
}

// Read fetches one memo through the memo_read database function, which
// checks access for username and signals denial via SQLSTATE.
func (s *Store) Read(ctx context.Context, id int, username string) (*Memo, error) {
	query := `SELECT id, title, memotekst, savetime, memo_group_id, user_id FROM memo_read($1, $2)`

	var m Memo
	err := s.db.QueryRowContext(ctx, query, id, username).
		Scan(&m.ID, &m.Title, &m.Body, &m.Savetime, &m.GroupID, &m.UserID)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("memo read: %w", err))
	}
	return &m, nil
}

// Write creates or updates a memo through the memo_write database function.
// The text is split into title and body; the savetime is the current wall
// clock in milliseconds.
func (s *Store) Write(ctx context.Context, req WriteRequest, username string) (*WriteResult, error) {
	title, body := SplitText(req.Text)
	millis := time.Now().UnixMilli()

	query := `SELECT id, savetime FROM memo_write($1, $2, $3, $4, $5, $6)`

	var res WriteResult
	err := s.db.QueryRowContext(ctx, query, req.MemoID, title, body, millis, req.GroupID, username).
		Scan(&res.ID, &res.Savetime)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("memo write: %w", err))
	}
	return &res, nil
}

// GroupsForUser lists the memo groups owned by username.
func (s *Store) GroupsForUser(ctx context.Context, username string) ([]Group, error) {
	query := `
		SELECT mg.id, mg.name
		FROM memo_group mg
		JOIN users u ON u.id = mg.user_id
		WHERE u.username = $1
		ORDER BY mg.id
	`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("memo groups: %w", err))
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, errs.FromPG(fmt.Errorf("scan memo group: %w", err))
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FromPG(fmt.Errorf("memo groups: %w", err))
	}
	return out, nil
}
