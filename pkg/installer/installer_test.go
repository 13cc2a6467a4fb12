package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgem/gitgem/pkg/config"
	"github.com/gitgem/gitgem/pkg/gittest"
	"github.com/gitgem/gitgem/pkg/store"
	"github.com/gitgem/gitgem/pkg/vcs"
)

// writeSpec creates a minimal specification file in dir.
func writeSpec(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "name: " + name + "\nversion: 1.0.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".gemspec"), []byte(content), 0o644))
}

func newInstaller(t *testing.T) *Installer {
	t.Helper()
	return &Installer{
		Store: store.New(t.TempDir(), ""),
		VCS:   &vcs.Git{AllowFileProtocol: true},
		Jobs:  2,
	}
}

func TestInstallAllPathDependencies(t *testing.T) {
	tests := map[string]struct {
		deps      map[string]config.Dependency
		existing  *config.LockFile
		wantSpecs map[string][]string
		wantErr   string
	}{
		"empty manifest": {
			deps:      map[string]config.Dependency{},
			wantSpecs: map[string][]string{},
		},
		"single path dependency": {
			deps: func() map[string]config.Dependency {
				dir := t.TempDir()
				writeSpec(t, dir, "alpha")
				return map[string]config.Dependency{"alpha": {Path: dir}}
			}(),
			wantSpecs: map[string][]string{"alpha": {"alpha-1.0.0"}},
		},
		"multiple path dependencies": {
			deps: func() map[string]config.Dependency {
				dir1 := t.TempDir()
				writeSpec(t, dir1, "alpha")
				dir2 := t.TempDir()
				writeSpec(t, dir2, "beta")
				writeSpec(t, filepath.Join(dir2, "nested"), "gamma")
				return map[string]config.Dependency{
					"alpha": {Path: dir1},
					"beta":  {Path: dir2},
				}
			}(),
			existing:  &config.LockFile{Version: 1},
			wantSpecs: map[string][]string{"alpha": {"alpha-1.0.0"}, "beta": {"beta-1.0.0", "gamma-1.0.0"}},
		},
		"missing directory": {
			deps:    map[string]config.Dependency{"missing": {Path: "/nonexistent/path"}},
			wantErr: `fetching "missing"`,
		},
		"invalid dependency": {
			deps:    map[string]config.Dependency{"bad": {}},
			wantErr: "one of git or path",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			inst := newInstaller(t)
			m := &config.Manifest{Project: config.ProjectConfig{Name: "test"}, Dependencies: tc.deps}

			lf, results, err := inst.InstallAll(context.Background(), m, tc.existing)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, 1, lf.Version)
			require.Len(t, lf.Packages, len(tc.wantSpecs))
			require.Len(t, results, len(tc.wantSpecs))
			for i, pkg := range lf.Packages {
				assert.Equal(t, tc.wantSpecs[pkg.Name], pkg.Specs)
				assert.Equal(t, pkg.Name, results[i].Name)
				assert.Empty(t, pkg.Revision)
				assert.True(t, filepath.IsAbs(pkg.Dir))
			}
		})
	}
}

func TestInstallAllGitDependencies(t *testing.T) {
	up := gittest.New(t, "rack")
	up.Write("rack.gemspec", "name: rack\nversion: 2.0.0\n")
	first := up.Commit("initial")

	other := gittest.New(t, "thor")
	other.Write("thor.gemspec", "name: thor\nversion: 1.0.0\n")
	other.Commit("initial")

	inst := newInstaller(t)
	m := &config.Manifest{Dependencies: map[string]config.Dependency{
		"rack": {Git: up.Dir, Ref: "master"},
		"thor": {Git: other.Dir},
	}}

	lf, results, err := inst.InstallAll(context.Background(), m, nil)
	require.NoError(t, err)
	require.Len(t, lf.Packages, 2)

	rack := lf.Find("rack")
	require.NotNil(t, rack)
	assert.Equal(t, first, rack.Revision)
	assert.Equal(t, "master", rack.Ref)
	assert.Equal(t, []string{"rack-2.0.0"}, rack.Specs)
	assert.Equal(t, inst.Store.Path("bundler", "gems", "rack-"+first[:12]), rack.Dir)
	assert.NotEmpty(t, rack.Integrity)
	assert.Equal(t, "rack", results[0].Name)
	assert.Equal(t, "thor", results[1].Name)

	thor := lf.Find("thor")
	require.NotNil(t, thor)
	assert.Empty(t, thor.Ref)
	assert.Equal(t, []string{"thor-1.0.0"}, thor.Specs)

	// upstream moves on; the lockfile keeps the old revision
	up.Write("rack.gemspec", "name: rack\nversion: 2.1.0\n")
	second := up.Commit("bump")

	relocked, _, err := inst.InstallAll(context.Background(), m, lf)
	require.NoError(t, err)
	assert.Equal(t, first, relocked.Find("rack").Revision)
	assert.Equal(t, "master", relocked.Find("rack").Ref)
	assert.Equal(t, []string{"rack-2.0.0"}, relocked.Find("rack").Specs)

	// changing the dependency invalidates the locked revision
	m.Dependencies["rack"] = config.Dependency{Git: up.Dir, Ref: "HEAD"}
	updated, _, err := inst.InstallAll(context.Background(), m, relocked)
	require.NoError(t, err)
	assert.Equal(t, second, updated.Find("rack").Revision)
	assert.Equal(t, []string{"rack-2.1.0"}, updated.Find("rack").Specs)
}

func TestInstallUnreachableRepository(t *testing.T) {
	gittest.Require(t)
	inst := newInstaller(t)

	_, err := inst.Install(context.Background(), "gone", config.Dependency{Git: filepath.Join(t.TempDir(), "gone")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `fetching "gone"`)
}

func TestSourceWiring(t *testing.T) {
	inst := newInstaller(t)

	src, err := inst.Source("a", config.Dependency{Git: "https://example.com/a.git", Ref: "v1"})
	require.NoError(t, err)
	assert.Equal(t, "git[https://example.com/a.git@v1]", src.String())

	_, err = inst.Source("a", config.Dependency{Git: "x", Path: "y"})
	assert.Error(t, err)
}
