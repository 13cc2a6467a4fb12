package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgem/gitgem/pkg/config"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, "demo"))

	m, err := config.LoadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Project.Name)
	assert.Empty(t, m.Dependencies)

	err = Init(dir, "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInferName(t *testing.T) {
	assert.Equal(t, "demo", InferName("/home/user/demo"))
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Init(root, "demo"))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = FindRoot(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRootMissing(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestEnsureGitignore(t *testing.T) {
	tests := map[string]struct {
		existing  string
		entries   []string
		wantAdded []string
		wantFile  string
	}{
		"new file": {
			entries:   []string{"gitgem.local.toml"},
			wantAdded: []string{"gitgem.local.toml"},
			wantFile:  "gitgem.local.toml\n",
		},
		"already present": {
			existing: "gitgem.local.toml\n",
			entries:  []string{"gitgem.local.toml"},
			wantFile: "gitgem.local.toml\n",
		},
		"missing trailing newline": {
			existing:  "vendor/",
			entries:   []string{"gitgem.local.toml"},
			wantAdded: []string{"gitgem.local.toml"},
			wantFile:  "vendor/\ngitgem.local.toml\n",
		},
		"partially present": {
			existing:  "a\n",
			entries:   []string{"a", "b"},
			wantAdded: []string{"b"},
			wantFile:  "a\nb\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tc.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0o644))
			}

			added, err := EnsureGitignore(dir, tc.entries)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAdded, added)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.wantFile, string(data))
		})
	}
}
