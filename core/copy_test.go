package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/publisher/schema"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSite writes a small site tree into fs under /src.
func seedSite(t *testing.T, fs afero.Fs) {
	t.Helper()
	files := map[string]string{
		"/src/index.html":          "<html>",
		"/src/assets/app.js":       "console.log(1)",
		"/src/assets/img/logo.svg": "<svg/>",
	}
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0o644))
	}
}

func progressItems(fx *fixture) []string {
	var items []string
	for _, ev := range fx.events.Events() {
		if ev.Type == schema.EventProgress {
			items = append(items, ev.Item)
		}
	}
	return items
}

func TestCopyIntoTreePreserveStructure(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedSite(t, fs)
	fx := newFixture(t, WithFs(fs))

	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{
		Dest:              "/repo",
		Paths:             []string{"/src/index.html", "/src/assets"},
		PreserveStructure: true,
	})
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "3 file(s) copied", out.Message)

	for _, name := range []string{"/repo/index.html", "/repo/assets/app.js", "/repo/assets/img/logo.svg"} {
		ok, err := afero.Exists(fs, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
	assert.Equal(t, []string{"index.html", "app.js", "logo.svg"}, progressItems(fx))
	for _, ev := range fx.events.Events() {
		if ev.Type == schema.EventProgress {
			assert.Equal(t, schema.UnknownTotal, ev.Total)
		}
	}
}

func TestCopyIntoTreeMergesDirectoryContents(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedSite(t, fs)
	fx := newFixture(t, WithFs(fs))

	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo", Paths: []string{"/src"}})
	require.True(t, out.Success, out.Message)

	ok, _ := afero.Exists(fs, "/repo/index.html")
	assert.True(t, ok)
	ok, _ = afero.Exists(fs, "/repo/assets/img/logo.svg")
	assert.True(t, ok)
	ok, _ = afero.Exists(fs, "/repo/src")
	assert.False(t, ok)
}

func TestCopyIntoTreeOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.txt", []byte("new"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/a.txt", []byte("old content"), 0o644))
	fx := newFixture(t, WithFs(fs))

	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo", Paths: []string{"/src/a.txt"}})
	require.True(t, out.Success)

	data, err := afero.ReadFile(fs, "/repo/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

// permFs rejects writes to existing files without the owner write bit, the
// way a non-root user sees a read-only file.
type permFs struct {
	afero.Fs
}

func (f permFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if info, err := f.Fs.Stat(name); err == nil && info.Mode().Perm()&0o200 == 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
		}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestCopyIntoTreeOverwritesReadOnlyFile(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/src/a.txt", []byte("new"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/repo/a.txt", []byte("old"), 0o644))
	require.NoError(t, mem.Chmod("/repo/a.txt", 0o444))
	fx := newFixture(t, WithFs(permFs{Fs: mem}))

	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo", Paths: []string{"/src/a.txt"}})
	require.True(t, out.Success, out.Message)
	assert.Zero(t, fx.events.Count(schema.EventWarning))

	data, err := afero.ReadFile(mem, "/repo/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCopyIntoTreeOverwritesReadOnlyFileOnDisk(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("first"), 0o444))
	fx := newFixture(t, WithFs(afero.NewOsFs()))

	opts := CopyOptions{Dest: dest, Paths: []string{filepath.Join(src, "a.txt")}}
	require.True(t, fx.m.CopyIntoTree(context.Background(), opts).Success)

	require.NoError(t, os.Chmod(filepath.Join(src, "a.txt"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("second"), 0o644))
	out := fx.m.CopyIntoTree(context.Background(), opts)
	require.True(t, out.Success, out.Message)

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestCopyIntoTreeSameFileKeepsContent(t *testing.T) {
	t.Run("file already in tree", func(t *testing.T) {
		dir := t.TempDir()
		name := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(name, []byte("precious"), 0o644))
		fx := newFixture(t, WithFs(afero.NewOsFs()))

		out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: dir, Paths: []string{name}})
		require.True(t, out.Success, out.Message)
		assert.Equal(t, "1 file(s) copied", out.Message)
		assert.Equal(t, 1, fx.events.Count(schema.EventWarning))

		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, "precious", string(data))
	})

	t.Run("directory is the destination", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{}"), 0o644))
		fx := newFixture(t, WithFs(afero.NewOsFs()))

		out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: dir, Paths: []string{dir}})
		require.True(t, out.Success, out.Message)

		data, err := os.ReadFile(filepath.Join(dir, "index.html"))
		require.NoError(t, err)
		assert.Equal(t, "<html>", string(data))
		data, err = os.ReadFile(filepath.Join(dir, "css", "site.css"))
		require.NoError(t, err)
		assert.Equal(t, "body{}", string(data))
	})
}

func TestCopyIntoTreeDestinationInsideSource(t *testing.T) {
	tests := []struct {
		name     string
		dest     string
		preserve bool
		copied   string
		absent   string
	}{
		{"nested tree preserved", "repo", true, "repo/src/x.txt", "repo/src/repo"},
		{"nested tree merged", "repo", false, "repo/x.txt", "repo/repo"},
		{"source is the destination", "", true, "src/x.txt", "src/src"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "src")
			require.NoError(t, os.MkdirAll(src, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("x"), 0o644))
			fx := newFixture(t, WithFs(afero.NewOsFs()))

			dest := filepath.Join(src, tt.dest)
			out := fx.m.CopyIntoTree(context.Background(), CopyOptions{
				Dest:              dest,
				Paths:             []string{src},
				PreserveStructure: tt.preserve,
			})
			require.True(t, out.Success, out.Message)
			assert.Equal(t, "1 file(s) copied", out.Message)
			assert.FileExists(t, filepath.Join(src, tt.copied))
			assert.NoDirExists(t, filepath.Join(src, tt.absent))
		})
	}
}

func TestCopyIntoTreeMissingInputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.txt", []byte("a"), 0o644))
	fx := newFixture(t, WithFs(fs))

	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo", Paths: []string{"/nope", "/src/a.txt"}})
	require.True(t, out.Success)
	assert.Equal(t, 1, fx.events.Count(schema.EventWarning))

	fx = newFixture(t, WithFs(fs))
	out = fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo", Paths: []string{"/nope"}})
	assert.Equal(t, schema.FileNotFound, out.Kind)
}

// failingFs refuses to create files whose name contains marker.
type failingFs struct {
	afero.Fs
	marker string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_CREATE != 0 && strings.Contains(name, f.marker) {
		return nil, errors.New("read-only file system")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestCopyIntoTreeToleratesFailures(t *testing.T) {
	mem := afero.NewMemMapFs()
	seedSite(t, mem)
	fx := newFixture(t, WithFs(failingFs{Fs: mem, marker: "app.js"}))

	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo", Paths: []string{"/src"}, PreserveStructure: true})
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "2 file(s) copied", out.Message)
	assert.Equal(t, 1, fx.events.Count(schema.EventWarning))
}

func TestCopyIntoTreeValidation(t *testing.T) {
	fx := newFixture(t, WithFs(afero.NewMemMapFs()))
	out := fx.m.CopyIntoTree(context.Background(), CopyOptions{Dest: "/repo"})
	assert.Equal(t, schema.InvalidArgument, out.Kind)
}

func TestCopyIntoTreeCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedSite(t, fs)
	fx := newFixture(t, WithFs(fs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := fx.m.CopyIntoTree(ctx, CopyOptions{Dest: "/repo", Paths: []string{"/src"}})
	assert.Equal(t, schema.UserCancelled, out.Kind)
	assert.Equal(t, schema.EventCancelled, fx.lastEvent(t).Type)
	assert.Empty(t, progressItems(fx))
}

func TestCopyAndStage(t *testing.T) {
	dir := newTestRepo(t)
	src := t.TempDir()
	for _, name := range []string{"a.md", "b.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(name), 0o644))
	}

	fx := newFixture(t)
	fx.expectRun(dir, schema.Succeeded("", ""), "add", "--", "docs/a.md")
	fx.expectRun(dir, schema.Succeeded("", ""), "add", "--", "docs/b.md")

	out := fx.m.CopyAndStage(context.Background(), dir, []string{
		filepath.Join(src, "a.md"),
		filepath.Join(src, "b.md"),
		src, // directories are skipped
	}, "docs")
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "2 file(s) copied and staged", out.Message)
	assert.FileExists(t, filepath.Join(dir, "docs", "a.md"))
	assert.Equal(t, 1, fx.events.Count(schema.EventWarning))
	fx.runner.AssertExpectations(t)
}

func TestCopyAndStageNothingCopied(t *testing.T) {
	fx := newFixture(t)
	out := fx.m.CopyAndStage(context.Background(), newTestRepo(t), []string{"/does/not/exist"}, "")
	assert.Equal(t, schema.FileNotFound, out.Kind)
	fx.runner.AssertNumberOfCalls(t, "Run", 0)
}
