package spec

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Discover walks the tree rooted at dir and loads every specification file
// found at any depth, including inside checked-out submodules. Files that
// fail to load are skipped and reported to logger at debug level; they never
// fail the scan. Results are ordered by their slash-separated path relative
// to dir.
func Discover(dir string, logger *log.Logger) ([]*Specification, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), Extension) {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	sort.Strings(paths)

	specs := make([]*Specification, 0, len(paths))
	for _, rel := range paths {
		s, err := Load(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			logger.Debug("skipping specification", "path", rel, "err", err)
			continue
		}
		specs = append(specs, s)
	}
	return specs, nil
}
