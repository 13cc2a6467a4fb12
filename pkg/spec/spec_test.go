package spec

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataDir(t *testing.T) string {
	t.Helper()
	_, f, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get caller info")
	}
	return filepath.Join(filepath.Dir(f), "testdata")
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		file         string
		wantFullName string
		wantErr      string
	}{
		"basic yaml": {
			file:         "basic.gemspec",
			wantFullName: "basic-1.0.0",
		},
		"all fields with numeric version": {
			file:         "full.gemspec",
			wantFullName: "full-2.1",
		},
		"json document": {
			file:         "json.gemspec",
			wantFullName: "json-pkg-0.3.0",
		},
		"empty file": {
			file:    "empty.gemspec",
			wantErr: "is empty",
		},
		"missing version": {
			file:    "no-version.gemspec",
			wantErr: "version must be provided",
		},
		"malformed yaml": {
			file:    "malformed.gemspec",
			wantErr: "parsing",
		},
		"invalid name": {
			file:    "bad-name.gemspec",
			wantErr: "may only contain",
		},
		"missing file": {
			file:    "nope.gemspec",
			wantErr: "reading",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(testdataDir(t), tc.file)
			s, err := Load(path)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFullName, s.FullName())
			assert.Equal(t, path, s.Path)
		})
	}
}

func TestLoadFullFields(t *testing.T) {
	s, err := Load(filepath.Join(testdataDir(t), "full.gemspec"))
	require.NoError(t, err)

	assert.Equal(t, "A package with every field set", s.Summary)
	assert.Equal(t, []string{"Ada", "Grace"}, s.Authors)
	assert.Equal(t, "MIT", s.License)
	assert.Equal(t, map[string]string{"basic": ">= 1.0"}, s.Dependencies)
	assert.Equal(t, "https://example.com/full", s.Metadata["homepage"])
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		spec    Specification
		wantErr []string
	}{
		"valid": {
			spec: Specification{Name: "a", Version: "1"},
		},
		"dotted and underscored name": {
			spec: Specification{Name: "net_http.persistent", Version: "1"},
		},
		"empty name": {
			spec:    Specification{Version: "1"},
			wantErr: []string{"name must be provided"},
		},
		"name with space": {
			spec:    Specification{Name: "a b", Version: "1"},
			wantErr: []string{"may only contain"},
		},
		"empty dependency requirement": {
			spec:    Specification{Name: "a", Version: "1", Dependencies: map[string]string{"b": ""}},
			wantErr: []string{`dependency "b"`},
		},
		"multiple errors joined": {
			spec:    Specification{},
			wantErr: []string{"name must be provided", "version must be provided"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.spec.Validate()
			if len(tc.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.gemspec":            "name: a\nversion: 1\n",
		"b/b.gemspec":          "name: b\nversion: 1\n",
		"c.gemspec":            "",
		"deep/x/y/z.gemspec":   "name: z\nversion: \"0.1\"\n",
		"README.md":            "not a spec",
		"a.gemspec.bak":        "name: bak\nversion: 1\n",
		".git/ignored.gemspec": "name: ignored\nversion: 1\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	specs, err := Discover(dir, logger)
	require.NoError(t, err)

	var names []string
	for _, s := range specs {
		names = append(names, s.FullName())
	}
	assert.Equal(t, []string{"a-1", "b-1", "z-0.1"}, names)
	assert.Contains(t, buf.String(), "c.gemspec")
}

func TestDiscoverOrderIsByPath(t *testing.T) {
	dir := t.TempDir()
	// names deliberately sort differently from their paths
	files := map[string]string{
		"z/first.gemspec": "name: aaa\nversion: 1\n",
		"a.gemspec":       "name: zzz\nversion: 1\n",
		"m/m.gemspec":     "name: mmm\nversion: 1\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	for range 3 {
		specs, err := Discover(dir, nil)
		require.NoError(t, err)
		require.Len(t, specs, 3)
		assert.Equal(t, "zzz", specs[0].Name)
		assert.Equal(t, "mmm", specs[1].Name)
		assert.Equal(t, "aaa", specs[2].Name)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "scanning"))
}
