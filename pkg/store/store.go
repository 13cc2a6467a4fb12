package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const (
	dirPerm       = 0o755
	hashPrefix    = "sha256:"
	tempPattern   = ".tmp-*"
	DefaultRoot   = ".gitgem"
	DefaultVendor = "bundler"
)

type Store interface {
	// Path returns the absolute filesystem path for the given segments
	// joined under the store root. Does not create or verify the path.
	Path(segments ...string) string
	// BaseDir returns <root>/<vendor>, the directory holding installed trees.
	BaseDir() string
	// RepoCacheSegments returns the segments of the mirror cache for a
	// repository: cache/<vendor>/git/<name>-<hash>.
	RepoCacheSegments(name, hash string) []string
	// InstallSegments returns the segments of an installed checkout:
	// <vendor>/gems/<name>-<shortRevision>.
	InstallSegments(name, shortRevision string) []string
	// Exists reports whether the path at the given segments exists.
	Exists(segments ...string) (bool, error)
	// EnsureDir creates the directory at segments (starting at store root),
	// including parents.
	EnsureDir(segments ...string) error
	// Remove deletes the entire tree at segments.
	Remove(segments ...string) error
	// TempDir creates an empty sibling of the path at segments, to be
	// populated and then moved into place with Replace.
	TempDir(segments ...string) (string, error)
	// Replace moves dir to the path at segments, removing whatever was
	// there before.
	Replace(dir string, segments ...string) error
	// HashDir computes a "sha256:<hex>" integrity hash over all file
	// contents in the directory at segments, walking recursively in sorted
	// order for determinism. Git metadata is excluded.
	HashDir(segments ...string) (string, error)
	// Lock takes an exclusive, cross-process lock guarding the path at
	// segments. The caller must Unlock it.
	Lock(ctx context.Context, segments ...string) (Unlocker, error)
	// RLock takes a shared lock on the same lock file as Lock.
	RLock(ctx context.Context, segments ...string) (Unlocker, error)
}

func New(root, vendor string) Store {
	if vendor == "" {
		vendor = DefaultVendor
	}
	return &store{root: root, vendor: vendor}
}

func Default(vendor string) (Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	return New(filepath.Join(home, DefaultRoot), vendor), nil
}

type store struct {
	root   string
	vendor string
}

var _ Store = &store{}

func (s *store) Path(segments ...string) string {
	return filepath.Join(append([]string{s.root}, segments...)...)
}

func (s *store) BaseDir() string {
	return s.Path(s.vendor)
}

func (s *store) RepoCacheSegments(name, hash string) []string {
	return []string{"cache", s.vendor, "git", name + "-" + hash}
}

func (s *store) InstallSegments(name, shortRevision string) []string {
	return []string{s.vendor, "gems", name + "-" + shortRevision}
}

func (s *store) Exists(segments ...string) (bool, error) {
	_, err := os.Stat(s.Path(segments...))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *store) EnsureDir(segments ...string) error {
	return os.MkdirAll(s.Path(segments...), dirPerm)
}

func (s *store) Remove(segments ...string) error {
	return os.RemoveAll(s.Path(segments...))
}

func (s *store) TempDir(segments ...string) (string, error) {
	target := s.Path(segments...)
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, dirPerm); err != nil {
		return "", fmt.Errorf("creating %s: %w", parent, err)
	}
	dir, err := os.MkdirTemp(parent, filepath.Base(target)+tempPattern)
	if err != nil {
		return "", fmt.Errorf("creating temporary directory in %s: %w", parent, err)
	}
	return dir, nil
}

func (s *store) Replace(dir string, segments ...string) error {
	target := s.Path(segments...)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("removing stale %s: %w", target, err)
	}
	if err := os.Rename(dir, target); err != nil {
		return fmt.Errorf("moving %s into place: %w", target, err)
	}
	return nil
}

func (s *store) HashDir(segments ...string) (string, error) {
	dir := s.Path(segments...)
	h := sha256.New()

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(files)

	for _, f := range files {
		data, err := readEntry(filepath.Join(dir, f))
		if err != nil {
			return "", err
		}
		h.Write([]byte(filepath.ToSlash(f)))
		h.Write(data)
	}

	return hashPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// readEntry returns a file's contents, or a symlink's target.
func readEntry(path string) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return nil, err
		}
		return []byte(target), nil
	}
	return os.ReadFile(path)
}
