package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/organizator/organizator/pkg/rbac"
)

// AccessPolicy sets the minimum access level required for each operation.
// Deployments tighten the defaults via a YAML policy file, for example to
// require write access for reading a sensitive instance's memos.
type AccessPolicy struct {
	MemoRead  rbac.AccessLevel
	MemoWrite rbac.AccessLevel
	FileRead  rbac.AccessLevel
	FileWrite rbac.AccessLevel
}

// DefaultAccessPolicy returns the standard thresholds: read operations need
// read access, mutations need write access.
func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		MemoRead:  rbac.LevelRead,
		MemoWrite: rbac.LevelWrite,
		FileRead:  rbac.LevelRead,
		FileWrite: rbac.LevelWrite,
	}
}

// accessPolicyFile is the YAML shape of the policy file. Absent fields keep
// their defaults.
type accessPolicyFile struct {
	Memo struct {
		Read  string `yaml:"read"`
		Write string `yaml:"write"`
	} `yaml:"memo"`
	File struct {
		Read  string `yaml:"read"`
		Write string `yaml:"write"`
	} `yaml:"file"`
}

// LoadAccessPolicy reads an access policy YAML file.
func LoadAccessPolicy(path string) (AccessPolicy, error) {
	policy := DefaultAccessPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read policy file: %w", err)
	}

	var file accessPolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return policy, fmt.Errorf("failed to parse policy file: %w", err)
	}

	assign := func(dst *rbac.AccessLevel, name string) error {
		if name == "" {
			return nil
		}
		level, err := parseAccessLevel(name)
		if err != nil {
			return err
		}
		*dst = level
		return nil
	}

	if err := assign(&policy.MemoRead, file.Memo.Read); err != nil {
		return policy, err
	}
	if err := assign(&policy.MemoWrite, file.Memo.Write); err != nil {
		return policy, err
	}
	if err := assign(&policy.FileRead, file.File.Read); err != nil {
		return policy, err
	}
	if err := assign(&policy.FileWrite, file.File.Write); err != nil {
		return policy, err
	}

	return policy, nil
}

func parseAccessLevel(name string) (rbac.AccessLevel, error) {
	switch name {
	case "read":
		return rbac.LevelRead, nil
	case "write":
		return rbac.LevelWrite, nil
	case "admin":
		return rbac.LevelAdmin, nil
	case "owner":
		return rbac.LevelOwner, nil
	default:
		return rbac.LevelNone, fmt.Errorf("unknown access level: %q", name)
	}
}
