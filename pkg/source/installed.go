package source

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/gitgem/gitgem/pkg/spec"
)

// InstalledSource is package content already present in a local directory.
type InstalledSource struct {
	Dir    string
	Logger *log.Logger
}

var _ Fetcher = &InstalledSource{}

func (i *InstalledSource) Kind() Kind { return KindInstalled }

func (i *InstalledSource) String() string { return "installed[" + i.Dir + "]" }

func (i *InstalledSource) compareSameKind(other Source) int {
	o, ok := other.(*InstalledSource)
	if !ok {
		return 0
	}
	return cmp.Compare(i.Dir, o.Dir)
}

// Fetch checks that the directory exists and reports its absolute path.
func (i *InstalledSource) Fetch(ctx context.Context) (*ResolvedSource, error) {
	absPath, err := filepath.Abs(i.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path for %q: %w", i.Dir, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("installed source path does not exist: %s", absPath)
		}
		return nil, fmt.Errorf("checking installed source path %s: %w", absPath, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("installed source path is not a directory: %s", absPath)
	}

	return &ResolvedSource{
		Dir: absPath,
	}, nil
}

// Specs returns the specifications found under the directory.
func (i *InstalledSource) Specs(ctx context.Context) ([]*spec.Specification, error) {
	resolved, err := i.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return spec.Discover(resolved.Dir, i.Logger)
}
