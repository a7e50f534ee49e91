package files

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/organizator/organizator/pkg/errs"
)

// Record is one filestore row.
type Record struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Filename string    `json:"filename"`
	GroupID  *int      `json:"memo_group_id"`
	Savetime int64     `json:"savetime"`
}

// Store reads and writes filestore rows in postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a new file metadata store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert records an upload. The id must be freshly generated by the caller;
// savetime is stamped here in milliseconds.
func (s *Store) Insert(ctx context.Context, id uuid.UUID, username, filename string, groupID *int) (*Record, error) {
	millis := time.Now().UnixMilli()

	query := `
		INSERT INTO filestore (id, username, filename, memo_group_id, savetime)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.db.ExecContext(ctx, query, id, username, filename, groupID, millis); err != nil {
		return nil, errs.FromPG(fmt.Errorf("insert filestore row: %w", err))
	}

	return &Record{
		ID:       id,
		Username: username,
		Filename: filename,
		GroupID:  groupID,
		Savetime: millis,
	}, nil
}

// Get returns the metadata row for a file id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := `
		SELECT id, username, filename, memo_group_id, savetime
		FROM filestore
		WHERE id = $1
	`

	var r Record
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&r.ID, &r.Username, &r.Filename, &r.GroupID, &r.Savetime)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("filestore row: %w", err))
	}
	return &r, nil
}

// ForGroup lists the files attached to a memo group, newest first.
func (s *Store) ForGroup(ctx context.Context, groupID int) ([]Record, error) {
	query := `
		SELECT id, username, filename, memo_group_id, savetime
		FROM filestore
		WHERE memo_group_id = $1
		ORDER BY savetime DESC
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("filestore rows for group: %w", err))
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Username, &r.Filename, &r.GroupID, &r.Savetime); err != nil {
			return nil, errs.FromPG(fmt.Errorf("scan filestore row: %w", err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FromPG(fmt.Errorf("filestore rows for group: %w", err))
	}
	return out, nil
}
