package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LockFileName records the revisions the manifest resolved to.
const LockFileName = "gitgem.lock"

const lockFileVersion = 1

type LockFile struct {
	Version  int             `toml:"version"`
	Packages []LockedPackage `toml:"package,omitempty"`
}

type LockedPackage struct {
	Name       string   `toml:"name"`
	Git        string   `toml:"git,omitempty"`
	Ref        string   `toml:"ref,omitempty"`
	Submodules bool     `toml:"submodules,omitempty"`
	Path       string   `toml:"path,omitempty"`
	Revision   string   `toml:"revision,omitempty"`
	Dir        string   `toml:"dir"`
	Integrity  string   `toml:"integrity,omitempty"`
	Specs      []string `toml:"specs,omitempty"`
}

// Matches reports whether the locked entry was produced from dep, so its
// revision can be reused.
func (p *LockedPackage) Matches(dep Dependency) bool {
	return p.Git == dep.Git && p.Ref == dep.Ref && p.Submodules == dep.Submodules && p.Path == dep.Path
}

// Find returns the entry for name, or nil.
func (l *LockFile) Find(name string) *LockedPackage {
	for i := range l.Packages {
		if l.Packages[i].Name == name {
			return &l.Packages[i]
		}
	}
	return nil
}

// LoadLockFile reads the lockfile at path. A missing file yields an empty
// lockfile.
func LoadLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &LockFile{Version: lockFileVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lf := &LockFile{}
	if err := toml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > lockFileVersion {
		return nil, fmt.Errorf("%s has version %d, newer than supported version %d", path, lf.Version, lockFileVersion)
	}
	return lf, nil
}

// SaveLockFile writes lf to path with packages sorted by name.
func SaveLockFile(path string, lf *LockFile) error {
	lf.Version = lockFileVersion
	slices.SortFunc(lf.Packages, func(a, b LockedPackage) int {
		return strings.Compare(a.Name, b.Name)
	})

	data, err := toml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SortedNames returns the keys of deps in order.
func SortedNames[V any](deps map[string]V) []string {
	return slices.Sorted(maps.Keys(deps))
}
