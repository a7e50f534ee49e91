package rbac

import "github.com/google/uuid"

// AccessLevel is the ordered integer privilege scale. Higher is more
// privileged. Comparisons against a required minimum always use >=, never
// equality.
type AccessLevel int

// Default level thresholds. The exact values are a configuration concern;
// only the ordering is load-bearing.
const (
	LevelNone  AccessLevel = 0
	LevelRead  AccessLevel = 1
	LevelWrite AccessLevel = 2
	LevelAdmin AccessLevel = 3
	LevelOwner AccessLevel = 9
)

// AtLeast reports whether l satisfies the required minimum.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l >= min
}

// AccessGrant is an explicit authorization record: members of UserGroupID
// may access resources in ResourceGroupID at least at Level. The core only
// reads grants; their lifecycle belongs to the administration surface.
type AccessGrant struct {
	ResourceGroupID int         `json:"resource_group_id"`
	UserGroupID     int         `json:"user_group_id"`
	Level           AccessLevel `json:"access_level"`
}

// FileRef identifies a stored file by its UUID.
type FileRef struct {
	ID uuid.UUID
}
