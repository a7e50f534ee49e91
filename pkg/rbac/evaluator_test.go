package rbac

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/organizator/organizator/pkg/errs"
)

// fakeStore is an in-memory AccessReader for evaluator and gate tests.
type fakeStore struct {
	owners     map[int]string             // groupID -> owner username
	grants     map[int]map[string][]AccessLevel // groupID -> principal -> levels
	fileOwners map[uuid.UUID]string
	fileGroups map[uuid.UUID]*int
	err        error
}

func (f *fakeStore) MemoGroupOwner(_ context.Context, groupID int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	owner, ok := f.owners[groupID]
	if !ok {
		return "", fmt.Errorf("%w: memo group %d", errs.ErrNotFound, groupID)
	}
	return owner, nil
}

func (f *fakeStore) GrantLevels(_ context.Context, groupID int, principal string) ([]AccessLevel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.grants[groupID][principal], nil
}

func (f *fakeStore) FileOwnerAndGroup(_ context.Context, fileID uuid.UUID) (string, *int, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	owner, ok := f.fileOwners[fileID]
	if !ok {
		return "", nil, fmt.Errorf("%w: file %s", errs.ErrNotFound, fileID)
	}
	return owner, f.fileGroups[fileID], nil
}

func TestCombine(t *testing.T) {
	cases := []struct {
		name    string
		isOwner bool
		grants  []AccessLevel
		want    AccessLevel
	}{
		{"owner with no grants", true, nil, LevelOwner},
		{"owner outranks grants", true, []AccessLevel{LevelRead}, LevelOwner},
		{"no grants no ownership", false, nil, LevelNone},
		{"single grant", false, []AccessLevel{LevelWrite}, LevelWrite},
		{"max wins not sum", false, []AccessLevel{2, 5}, 5},
		{"max wins regardless of order", false, []AccessLevel{5, 2}, 5},
		{"duplicates collapse", false, []AccessLevel{3, 3, 3}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Combine(tc.isOwner, tc.grants); got != tc.want {
				t.Errorf("Combine(%v, %v) = %d, want %d", tc.isOwner, tc.grants, got, tc.want)
			}
		})
	}
}

func TestMemoGroupLevel(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		owners: map[int]string{7: "alice"},
		grants: map[int]map[string][]AccessLevel{
			7: {"bob": {LevelRead, LevelAdmin}},
		},
	}
	eval := NewEvaluator(store)

	t.Run("owner gets maximum even without grants", func(t *testing.T) {
		level, err := eval.MemoGroupLevel(ctx, "alice", 7)
		if err != nil {
			t.Fatalf("MemoGroupLevel failed: %v", err)
		}
		if level != LevelOwner {
			t.Errorf("expected owner level %d, got %d", LevelOwner, level)
		}
	})

	t.Run("member gets most generous grant", func(t *testing.T) {
		level, err := eval.MemoGroupLevel(ctx, "bob", 7)
		if err != nil {
			t.Fatalf("MemoGroupLevel failed: %v", err)
		}
		if level != LevelAdmin {
			t.Errorf("expected level %d, got %d", LevelAdmin, level)
		}
	})

	t.Run("stranger gets none", func(t *testing.T) {
		level, err := eval.MemoGroupLevel(ctx, "mallory", 7)
		if err != nil {
			t.Fatalf("MemoGroupLevel failed: %v", err)
		}
		if level != LevelNone {
			t.Errorf("expected level %d, got %d", LevelNone, level)
		}
	})

	t.Run("missing group is not found", func(t *testing.T) {
		_, err := eval.MemoGroupLevel(ctx, "alice", 99)
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFileLevel(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.New()
	orphanID := uuid.New()
	groupID := 7

	store := &fakeStore{
		owners: map[int]string{7: "alice"},
		grants: map[int]map[string][]AccessLevel{
			7: {"bob": {LevelRead}},
		},
		fileOwners: map[uuid.UUID]string{fileID: "alice", orphanID: "carol"},
		fileGroups: map[uuid.UUID]*int{fileID: &groupID, orphanID: nil},
	}
	eval := NewEvaluator(store)

	t.Run("uploader owns the file", func(t *testing.T) {
		level, err := eval.FileLevel(ctx, "alice", fileID)
		if err != nil {
			t.Fatalf("FileLevel failed: %v", err)
		}
		if level != LevelOwner {
			t.Errorf("expected %d, got %d", LevelOwner, level)
		}
	})

	t.Run("group member reads through grants", func(t *testing.T) {
		level, err := eval.FileLevel(ctx, "bob", fileID)
		if err != nil {
			t.Fatalf("FileLevel failed: %v", err)
		}
		if level != LevelRead {
			t.Errorf("expected %d, got %d", LevelRead, level)
		}
	})

	t.Run("unattached file visible to owner only", func(t *testing.T) {
		level, err := eval.FileLevel(ctx, "bob", orphanID)
		if err != nil {
			t.Fatalf("FileLevel failed: %v", err)
		}
		if level != LevelNone {
			t.Errorf("expected %d, got %d", LevelNone, level)
		}
	})

	t.Run("missing file is not found", func(t *testing.T) {
		_, err := eval.FileLevel(ctx, "alice", uuid.New())
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
