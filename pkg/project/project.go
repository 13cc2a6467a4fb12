package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gitgem/gitgem/pkg/config"
)

const ManifestFile = config.ManifestFileName

// ErrNoManifest is returned by FindRoot when no directory up to the
// filesystem root holds a manifest.
var ErrNoManifest = errors.New("no " + ManifestFile + " found in this directory or any parent")

// IgnoreEntries are the project files that hold developer-local state and
// should typically be gitignored. The lockfile is meant to be committed.
var IgnoreEntries = []string{
	config.LocalConfigFile,
}

// InferName derives a project name from the given directory path.
func InferName(dir string) string {
	return filepath.Base(dir)
}

// Init writes a manifest for a project called name into dir. An existing
// manifest is never overwritten.
func Init(dir, name string) error {
	path := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists in %s", ManifestFile, dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return config.SaveFile(path, &config.Manifest{
		Project:      config.ProjectConfig{Name: name},
		Dependencies: map[string]config.Dependency{},
	})
}

// FindRoot returns the nearest directory at or above dir holding a
// manifest.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoManifest
		}
		dir = parent
	}
}

// EnsureGitignore appends to dir/.gitignore the entries it does not list yet
// and returns them.
func EnsureGitignore(dir string, entries []string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(string(existing), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	missing := slices.DeleteFunc(slices.Clone(entries), func(e string) bool {
		return slices.Contains(lines, e)
	})
	if len(missing) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	for _, e := range missing {
		buf.WriteString(e + "\n")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return missing, nil
}
