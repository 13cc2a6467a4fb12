package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	root := "/tmp/store-root"

	tests := map[string]struct {
		segments []string
		want     string
	}{
		"no segments": {
			segments: nil,
			want:     root,
		},
		"single segment": {
			segments: []string{"foo"},
			want:     filepath.Join(root, "foo"),
		},
		"multiple segments": {
			segments: []string{"foo", "bar", "baz"},
			want:     filepath.Join(root, "foo", "bar", "baz"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := New(root, "")
			assert.Equal(t, tc.want, s.Path(tc.segments...))
		})
	}
}

func TestLayout(t *testing.T) {
	root := "/var/gems"

	tests := map[string]struct {
		vendor      string
		wantBase    string
		wantCache   string
		wantInstall string
	}{
		"default vendor": {
			vendor:      "",
			wantBase:    filepath.Join(root, "bundler"),
			wantCache:   filepath.Join(root, "cache", "bundler", "git", "a-291c4caac7feba8bb64c297987028acb3dde6cfe"),
			wantInstall: filepath.Join(root, "bundler", "gems", "a-0123456789ab"),
		},
		"custom vendor": {
			vendor:      "acme",
			wantBase:    filepath.Join(root, "acme"),
			wantCache:   filepath.Join(root, "cache", "acme", "git", "a-291c4caac7feba8bb64c297987028acb3dde6cfe"),
			wantInstall: filepath.Join(root, "acme", "gems", "a-0123456789ab"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := New(root, tc.vendor)
			assert.Equal(t, tc.wantBase, s.BaseDir())
			assert.Equal(t, tc.wantCache, s.Path(s.RepoCacheSegments("a", "291c4caac7feba8bb64c297987028acb3dde6cfe")...))
			assert.Equal(t, tc.wantInstall, s.Path(s.InstallSegments("a", "0123456789ab")...))
		})
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	s := New(root, "")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "file.txt"), []byte("x"), 0o644))

	tests := map[string]struct {
		segments []string
		want     bool
	}{
		"existing directory": {segments: []string{"a", "b"}, want: true},
		"existing file":      {segments: []string{"a", "file.txt"}, want: true},
		"missing path":       {segments: []string{"nope"}, want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := s.Exists(tc.segments...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEnsureDirAndRemove(t *testing.T) {
	s := New(t.TempDir(), "")

	require.NoError(t, s.EnsureDir("x", "y", "z"))
	ok, err := s.Exists("x", "y", "z")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Remove("x"))
	ok, err = s.Exists("x")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Remove("never-existed"))
}

func TestTempDirAndReplace(t *testing.T) {
	s := New(t.TempDir(), "")
	target := []string{"cache", "bundler", "git", "a-abc"}

	tmp, err := s.TempDir(target...)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(s.Path(target...)), filepath.Dir(tmp))
	assert.True(t, strings.HasPrefix(filepath.Base(tmp), "a-abc.tmp-"))

	require.NoError(t, os.WriteFile(filepath.Join(tmp, "new.txt"), []byte("new"), 0o644))

	// a stale, half-written target is replaced wholesale
	require.NoError(t, s.EnsureDir(target...))
	require.NoError(t, os.WriteFile(s.Path(append(target, "stale.txt")...), []byte("old"), 0o644))

	require.NoError(t, s.Replace(tmp, target...))

	assert.FileExists(t, s.Path(append(target, "new.txt")...))
	assert.NoFileExists(t, s.Path(append(target, "stale.txt")...))
	assert.NoDirExists(t, tmp)
}

func TestHashDir(t *testing.T) {
	tests := map[string]struct {
		files map[string]string
		same  map[string]string
		diff  map[string]string
	}{
		"content change alters hash": {
			files: map[string]string{"a.txt": "hello"},
			same:  map[string]string{"a.txt": "hello"},
			diff:  map[string]string{"a.txt": "world"},
		},
		"rename alters hash": {
			files: map[string]string{"a.txt": "hello"},
			diff:  map[string]string{"b.txt": "hello"},
		},
		"git metadata is ignored": {
			files: map[string]string{"a.txt": "hello"},
			same:  map[string]string{"a.txt": "hello", ".git/HEAD": "ref: refs/heads/main", "sub/.git": "gitdir: ../x"},
		},
		"nested files count": {
			files: map[string]string{"a.txt": "hello"},
			diff:  map[string]string{"a.txt": "hello", "b/c.txt": "deep"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			base := hashOf(t, tc.files)
			assert.True(t, strings.HasPrefix(base, "sha256:"))
			if tc.same != nil {
				assert.Equal(t, base, hashOf(t, tc.same))
			}
			if tc.diff != nil {
				assert.NotEqual(t, base, hashOf(t, tc.diff))
			}
		})
	}
}

func TestHashDirNonExistent(t *testing.T) {
	s := New(t.TempDir(), "")
	_, err := s.HashDir("missing")
	assert.Error(t, err)
}

func TestLockSerializes(t *testing.T) {
	s := New(t.TempDir(), "")
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		holders  atomic.Int32
		overlaps atomic.Int32
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := s.Lock(ctx, "cache", "bundler", "git", "a-abc")
			if !assert.NoError(t, err) {
				return
			}
			if holders.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(20 * time.Millisecond)
			holders.Add(-1)
			assert.NoError(t, l.Unlock())
		}()
	}
	wg.Wait()

	assert.Zero(t, overlaps.Load())
	assert.FileExists(t, s.Path("cache", "bundler", "git", "a-abc.lock"))
}

func TestLockContextCancelled(t *testing.T) {
	s := New(t.TempDir(), "")

	held, err := s.Lock(context.Background(), "busy")
	require.NoError(t, err)
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Lock(ctx, "busy")
	assert.Error(t, err)
}

func TestRLock(t *testing.T) {
	tests := map[string]struct {
		held     func(s Store) (Unlocker, error)
		wantFree bool
	}{
		"readers share": {
			held:     func(s Store) (Unlocker, error) { return s.RLock(context.Background(), "mirror") },
			wantFree: true,
		},
		"writer excludes readers": {
			held:     func(s Store) (Unlocker, error) { return s.Lock(context.Background(), "mirror") },
			wantFree: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := New(t.TempDir(), "")
			held, err := tc.held(s)
			require.NoError(t, err)
			defer held.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			l, err := s.RLock(ctx, "mirror")
			if !tc.wantFree {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, l.Unlock())
		})
	}
}

func TestLockWaitsForReaders(t *testing.T) {
	s := New(t.TempDir(), "")

	reader, err := s.RLock(context.Background(), "mirror")
	require.NoError(t, err)
	defer reader.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Lock(ctx, "mirror")
	assert.Error(t, err)
}

func hashOf(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, "pkg", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	h, err := New(root, "").HashDir("pkg")
	require.NoError(t, err)
	return h
}
