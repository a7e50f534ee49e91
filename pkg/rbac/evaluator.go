package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/organizator/organizator/pkg/errs"
)

// Evaluator computes the effective access level a principal holds over a
// resource. It owns the combination rule; the gate and handlers never
// re-implement it.
type Evaluator struct {
	store AccessReader
}

// NewEvaluator creates an evaluator over the given store.
func NewEvaluator(store AccessReader) *Evaluator {
	return &Evaluator{store: store}
}

// Combine applies the combination rule to already-gathered facts: ownership
// wins outright, otherwise the most generous applicable grant wins, and a
// principal with neither holds no access.
func Combine(isOwner bool, grants []AccessLevel) AccessLevel {
	if isOwner {
		return LevelOwner
	}
	level := LevelNone
	for _, g := range grants {
		if g > level {
			level = g
		}
	}
	return level
}

// MemoGroupLevel returns the principal's effective level over a memo group.
// A missing group is errs.ErrNotFound.
func (e *Evaluator) MemoGroupLevel(ctx context.Context, principal string, groupID int) (AccessLevel, error) {
	owner, err := e.store.MemoGroupOwner(ctx, groupID)
	if err != nil {
		return LevelNone, err
	}
	if owner == principal {
		return Combine(true, nil), nil
	}

	grants, err := e.store.GrantLevels(ctx, groupID, principal)
	if err != nil {
		return LevelNone, fmt.Errorf("evaluate memo group %d: %w", groupID, err)
	}
	return Combine(false, grants), nil
}

// FileLevel returns the principal's effective level over a stored file. The
// uploader owns the file; other principals go through the grants of the memo
// group the file is attached to. An unattached file is visible to its owner
// only.
func (e *Evaluator) FileLevel(ctx context.Context, principal string, fileID uuid.UUID) (AccessLevel, error) {
	owner, groupID, err := e.store.FileOwnerAndGroup(ctx, fileID)
	if err != nil {
		return LevelNone, err
	}
	if owner == principal {
		return Combine(true, nil), nil
	}
	if groupID == nil {
		return LevelNone, nil
	}

	grants, err := e.store.GrantLevels(ctx, *groupID, principal)
	if err != nil {
		// The group vanishing between reads reads as no grants, not as a
		// missing file.
		if errors.Is(err, errs.ErrNotFound) {
			return LevelNone, nil
		}
		return LevelNone, fmt.Errorf("evaluate file %s: %w", fileID, err)
	}
	return Combine(false, grants), nil
}
