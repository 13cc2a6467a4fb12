package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"sigs.k8s.io/yaml"
)

// Extension is the file extension identifying specification files.
const Extension = ".gemspec"

var validNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Specification describes a package discovered in a source tree.
type Specification struct {
	Name         string            `json:"name"`
	Version      Version           `json:"version"`
	Summary      string            `json:"summary,omitempty"`
	Authors      []string          `json:"authors,omitempty"`
	License      string            `json:"license,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	// Path is the file the specification was loaded from.
	Path string `json:"-"`
}

// FullName returns name-version, the conventional display form.
func (s *Specification) FullName() string {
	return s.Name + "-" + string(s.Version)
}

// Version is a package version. Bare numeric versions in YAML (version: 1)
// are accepted alongside quoted ones.
type Version string

func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version must be a string or a number, got %s", data)
	}
	*v = Version(n.String())
	return nil
}

// Load reads and validates the specification file at path. The file holds a
// YAML (or JSON) document.
func Load(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	s := &Specification{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	s.Path = path

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid specification %s: %w", path, err)
	}
	return s, nil
}

func (s *Specification) Validate() error {
	var err error
	if s.Name == "" {
		err = errors.Join(err, errors.New("name must be provided"))
	} else if !validNameRegex.MatchString(s.Name) {
		err = errors.Join(err, fmt.Errorf("name %q may only contain letters, numbers, '.', '_' and '-', and must start with a letter or number", s.Name))
	}
	if s.Version == "" {
		err = errors.Join(err, errors.New("version must be provided"))
	}
	for dep, req := range s.Dependencies {
		if dep == "" || req == "" {
			err = errors.Join(err, fmt.Errorf("dependency %q must name a requirement", dep))
		}
	}
	return err
}
