package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the project manifest listing the dependencies to
// install.
const ManifestFileName = "gitgem.toml"

type Manifest struct {
	Project      ProjectConfig         `toml:"project"`
	Dependencies map[string]Dependency `toml:"dependencies,omitempty"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
}

// Dependency is either a git repository or a directory already on disk.
type Dependency struct {
	Git        string `toml:"git,omitempty"`
	Ref        string `toml:"ref,omitempty"`
	Submodules bool   `toml:"submodules,omitempty"`

	Path string `toml:"path,omitempty"`
}

// Validate checks that exactly one location is given and that git-only
// options are not set on a path dependency.
func (d Dependency) Validate(name string) error {
	switch {
	case d.Git != "" && d.Path != "":
		return fmt.Errorf("dependency %q: git and path are mutually exclusive", name)
	case d.Git == "" && d.Path == "":
		return fmt.Errorf("dependency %q: one of git or path is required", name)
	case d.Path != "" && (d.Ref != "" || d.Submodules):
		return fmt.Errorf("dependency %q: ref and submodules only apply to git dependencies", name)
	}
	return nil
}

// Validate checks every dependency, reporting all problems at once.
func (m *Manifest) Validate() error {
	var errs []error
	for _, name := range SortedNames(m.Dependencies) {
		if err := m.Dependencies[name].Validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func UnmarshalManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	err := toml.Unmarshal(data, m)

	return m, err
}

func (m *Manifest) Marshal() ([]byte, error) {
	return toml.Marshal(m)
}

func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := UnmarshalManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

func SaveFile(path string, m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GlobalConfigDir returns the path to ~/.gitgem, creating it if necessary.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	dir := filepath.Join(home, ".gitgem")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}
