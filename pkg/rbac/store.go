package rbac

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/organizator/organizator/pkg/errs"
)

// AccessReader is the read surface the evaluator needs. *Store is the
// production implementation; tests may substitute a fake.
type AccessReader interface {
	// MemoGroupOwner returns the username of the memo group's creator.
	MemoGroupOwner(ctx context.Context, groupID int) (string, error)

	// GrantLevels returns the access level of every grant on the memo group
	// whose user group has principal as a member. Order is unspecified.
	GrantLevels(ctx context.Context, groupID int, principal string) ([]AccessLevel, error)

	// FileOwnerAndGroup returns the uploader's username and the memo group
	// the file is attached to (nil when unattached).
	FileOwnerAndGroup(ctx context.Context, fileID uuid.UUID) (owner string, groupID *int, err error)
}

// Store reads grant and ownership state from postgres. Every read reflects
// current committed state; nothing is cached.
type Store struct {
	db *sql.DB
}

// NewStore creates a new permission store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// MemoGroupOwner returns the owning username of a memo group.
func (s *Store) MemoGroupOwner(ctx context.Context, groupID int) (string, error) {
	query := `
		SELECT u.username
		FROM memo_group mg
		JOIN users u ON u.id = mg.user_id
		WHERE mg.id = $1
	`

	var owner string
	err := s.db.QueryRowContext(ctx, query, groupID).Scan(&owner)
	if err != nil {
		return "", errs.FromPG(fmt.Errorf("memo group owner: %w", err))
	}
	return owner, nil
}

// GrantLevels returns the levels of all grants applicable to principal on
// the memo group.
func (s *Store) GrantLevels(ctx context.Context, groupID int, principal string) ([]AccessLevel, error) {
	query := `
		SELECT a.access_level
		FROM memo_acl a
		JOIN user_group_member m ON m.user_group_id = a.user_group_id
		JOIN users u ON u.id = m.user_id
		WHERE a.memo_group_id = $1 AND u.username = $2
	`

	rows, err := s.db.QueryContext(ctx, query, groupID, principal)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("grant levels: %w", err))
	}
	defer rows.Close()

	var levels []AccessLevel
	for rows.Next() {
		var level int
		if err := rows.Scan(&level); err != nil {
			return nil, errs.FromPG(fmt.Errorf("scan grant level: %w", err))
		}
		levels = append(levels, AccessLevel(level))
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FromPG(fmt.Errorf("grant levels: %w", err))
	}
	return levels, nil
}

// FileOwnerAndGroup returns the uploader and attached memo group of a file.
func (s *Store) FileOwnerAndGroup(ctx context.Context, fileID uuid.UUID) (string, *int, error) {
	query := `
		SELECT u.username, fs.memo_group_id
		FROM filestore fs
		JOIN users u ON u.id = fs.user_id
		WHERE fs.id = $1
	`

	var owner string
	var groupID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, fileID).Scan(&owner, &groupID)
	if err != nil {
		return "", nil, errs.FromPG(fmt.Errorf("file ownership: %w", err))
	}

	if !groupID.Valid {
		return owner, nil, nil
	}
	id := int(groupID.Int64)
	return owner, &id, nil
}

// ExplicitGrants lists every grant on a memo group. Read-only; used by the
// group listing surface, never by the gate.
func (s *Store) ExplicitGrants(ctx context.Context, groupID int) ([]AccessGrant, error) {
	query := `
		SELECT memo_group_id, user_group_id, access_level
		FROM memo_acl
		WHERE memo_group_id = $1
		ORDER BY user_group_id
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, errs.FromPG(fmt.Errorf("explicit grants: %w", err))
	}
	defer rows.Close()

	var grants []AccessGrant
	for rows.Next() {
		var g AccessGrant
		if err := rows.Scan(&g.ResourceGroupID, &g.UserGroupID, &g.Level); err != nil {
			return nil, errs.FromPG(fmt.Errorf("scan grant: %w", err))
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FromPG(fmt.Errorf("explicit grants: %w", err))
	}
	return grants, nil
}
