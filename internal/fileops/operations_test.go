package fileops

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// nopLogger returns a logger that discards all output, suitable for tests.
func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chownRecorder records Chown calls instead of applying them.
type chownRecorder struct {
	afero.Fs
	calls []Owner
	err   error
}

func (c *chownRecorder) Chown(name string, uid, gid int) error {
	c.calls = append(c.calls, Owner{UID: uid, GID: gid})
	return c.err
}

// touchless fails the test if anything reaches the filesystem.
type touchless struct {
	afero.Fs
	t *testing.T
}

func (f touchless) Stat(name string) (os.FileInfo, error) {
	f.t.Fatalf("unexpected Stat(%q)", name)
	return nil, nil
}

func (f touchless) Open(name string) (afero.File, error) {
	f.t.Fatalf("unexpected Open(%q)", name)
	return nil, nil
}

func TestList(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/var/mobile/Documents", 0755))
	require.NoError(t, afero.WriteFile(fs, "/var/mobile/b.txt", []byte("b"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/var/mobile/a.txt", []byte("a"), 0644))

	ops := New(fs, nopLogger())

	t.Run("directory entries sorted", func(t *testing.T) {
		names, err := ops.List("/var/mobile")
		require.NoError(t, err)
		require.Equal(t, []string{"Documents", "a.txt", "b.txt"}, names)
	})

	t.Run("empty directory", func(t *testing.T) {
		names, err := ops.List("/var/mobile/Documents")
		require.NoError(t, err)
		require.Empty(t, names)
	})

	t.Run("regular file", func(t *testing.T) {
		_, err := ops.List("/var/mobile/a.txt")
		require.ErrorIs(t, err, ErrNotADirectory)
		require.Equal(t, KindNotADirectory, KindOf(err))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := ops.List("/var/mobile/nope")
		require.ErrorIs(t, err, ErrNotADirectory)
	})
}

func TestList_RelativePathNeverTouchesFilesystem(t *testing.T) {
	ops := New(touchless{Fs: afero.NewMemMapFs(), t: t}, nopLogger())

	for _, p := range []string{".", "..", "./var", ".hidden"} {
		_, err := ops.List(p)
		require.ErrorIs(t, err, ErrRelativePathNotAllowed, p)

		var fe *Error
		require.True(t, errors.As(err, &fe))
		require.Equal(t, p, fe.Path)
	}
}

func TestCreate(t *testing.T) {
	t.Run("creates empty file owned by sandbox identity", func(t *testing.T) {
		rec := &chownRecorder{Fs: afero.NewMemMapFs()}
		ops := New(rec, nopLogger(), WithOwner(501, 501))

		require.NoError(t, ops.Create("/var/mobile/test.txt"))

		data, err := afero.ReadFile(rec, "/var/mobile/test.txt")
		require.NoError(t, err)
		require.Empty(t, data)
		require.Equal(t, []Owner{{UID: 501, GID: 501}}, rec.calls)
	})

	t.Run("existing file is left untouched", func(t *testing.T) {
		rec := &chownRecorder{Fs: afero.NewMemMapFs()}
		require.NoError(t, afero.WriteFile(rec, "/var/mobile/test.txt", []byte("keep me"), 0600))
		ops := New(rec, nopLogger(), WithOwner(501, 501))

		err := ops.Create("/var/mobile/test.txt")
		require.ErrorIs(t, err, ErrAlreadyExists)

		data, err := afero.ReadFile(rec, "/var/mobile/test.txt")
		require.NoError(t, err)
		require.Equal(t, "keep me", string(data))
		require.Empty(t, rec.calls)
	})

	t.Run("no owner configured skips chown", func(t *testing.T) {
		rec := &chownRecorder{Fs: afero.NewMemMapFs()}
		ops := New(rec, nopLogger())

		require.NoError(t, ops.Create("/tmp/x"))
		require.Empty(t, rec.calls)
	})

	t.Run("chown failure is an OS error", func(t *testing.T) {
		rec := &chownRecorder{Fs: afero.NewMemMapFs(), err: os.ErrPermission}
		ops := New(rec, nopLogger(), WithOwner(501, 501))

		err := ops.Create("/tmp/x")
		require.ErrorIs(t, err, ErrUnderlyingOS)
		require.ErrorIs(t, err, os.ErrPermission)
	})
}

func TestCreateDirectory(t *testing.T) {
	dir := t.TempDir()
	ops := New(afero.NewOsFs(), nopLogger())

	require.NoError(t, ops.CreateDirectory(filepath.Join(dir, "one")))

	info, err := os.Stat(filepath.Join(dir, "one"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	err = ops.CreateDirectory(filepath.Join(dir, "one"))
	require.ErrorIs(t, err, ErrAlreadyExists)

	// No intermediate directories.
	err = ops.CreateDirectory(filepath.Join(dir, "missing", "child"))
	require.ErrorIs(t, err, ErrUnderlyingOS)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a/file.txt", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/a/dir/nested.txt", []byte("y"), 0644))
	ops := New(fs, nopLogger())

	require.NoError(t, ops.Delete("/a/file.txt"))
	exists, err := afero.Exists(fs, "/a/file.txt")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, ops.Delete("/a/dir"))
	exists, err = afero.Exists(fs, "/a/dir/nested.txt")
	require.NoError(t, err)
	require.False(t, exists)

	err = ops.Delete("/a/file.txt")
	require.ErrorIs(t, err, ErrUnderlyingOS)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/file.txt", []byte("hello"), 0640))
	require.NoError(t, afero.WriteFile(fs, "/src/tree/inner/deep.txt", []byte("deep"), 0600))
	require.NoError(t, afero.WriteFile(fs, "/taken", []byte("original"), 0644))
	ops := New(fs, nopLogger())

	t.Run("file", func(t *testing.T) {
		require.NoError(t, ops.Copy("/src/file.txt", "/dst.txt"))

		data, err := afero.ReadFile(fs, "/dst.txt")
		require.NoError(t, err)
		require.Equal(t, "hello", string(data))

		info, err := fs.Stat("/dst.txt")
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0640), info.Mode().Perm())

		_, err = fs.Stat("/src/file.txt")
		require.NoError(t, err, "source must survive a copy")
	})

	t.Run("directory tree", func(t *testing.T) {
		require.NoError(t, ops.Copy("/src/tree", "/tree-copy"))

		data, err := afero.ReadFile(fs, "/tree-copy/inner/deep.txt")
		require.NoError(t, err)
		require.Equal(t, "deep", string(data))
	})

	t.Run("existing destination", func(t *testing.T) {
		err := ops.Copy("/src/file.txt", "/taken")
		require.ErrorIs(t, err, ErrAlreadyExists)

		data, err := afero.ReadFile(fs, "/taken")
		require.NoError(t, err)
		require.Equal(t, "original", string(data))
	})

	t.Run("missing source", func(t *testing.T) {
		err := ops.Copy("/src/none", "/none-copy")
		require.ErrorIs(t, err, os.ErrNotExist)

		exists, err := afero.Exists(fs, "/none-copy")
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestCopy_Symlink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target"), []byte("t"), 0644))
	require.NoError(t, os.Symlink("target", filepath.Join(dir, "link")))

	ops := New(afero.NewOsFs(), nopLogger())
	require.NoError(t, ops.Copy(filepath.Join(dir, "link"), filepath.Join(dir, "link2")))

	got, err := os.Readlink(filepath.Join(dir, "link2"))
	require.NoError(t, err)
	require.Equal(t, "target", got)
}

func TestMove(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a/src.txt", []byte("one"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/a/busy.txt", []byte("busy"), 0644))
	ops := New(fs, nopLogger())

	require.NoError(t, ops.Move("/a/src.txt", "/a/dst.txt"))

	data, err := afero.ReadFile(fs, "/a/dst.txt")
	require.NoError(t, err)
	require.Equal(t, "one", string(data))

	exists, err := afero.Exists(fs, "/a/src.txt")
	require.NoError(t, err)
	require.False(t, exists)

	err = ops.Move("/a/dst.txt", "/a/busy.txt")
	require.ErrorIs(t, err, ErrAlreadyExists)

	err = ops.Move("/a/gone.txt", "/a/other.txt")
	require.ErrorIs(t, err, ErrUnderlyingOS)
}

func TestCopyAndMove_IntoOwnSubtree(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a/f", []byte("x"), 0644))
	ops := New(fs, nopLogger())

	tests := []struct {
		name string
		op   func(src, dst string) error
		dst  string
	}{
		{"copy into child", ops.Copy, "/a/sub"},
		{"copy into grandchild", ops.Copy, "/a/sub/deeper"},
		{"move into child", ops.Move, "/a/sub"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op("/a", tt.dst)
			require.ErrorIs(t, err, ErrUnderlyingOS)
			require.ErrorIs(t, err, syscall.EINVAL)

			exists, err := afero.Exists(fs, "/a/sub")
			require.NoError(t, err)
			require.False(t, exists)

			data, err := afero.ReadFile(fs, "/a/f")
			require.NoError(t, err)
			require.Equal(t, "x", string(data))
		})
	}

	t.Run("sibling with shared name prefix is allowed", func(t *testing.T) {
		require.NoError(t, ops.Copy("/a", "/ab"))
		exists, err := afero.Exists(fs, "/ab/f")
		require.NoError(t, err)
		require.True(t, exists)
	})
}

func TestIdentity(t *testing.T) {
	ops := New(afero.NewMemMapFs(), nopLogger(), WithIdentity(func() (int, int) {
		return 0, 20
	}))
	uid, gid := ops.Identity()
	require.Equal(t, 0, uid)
	require.Equal(t, 20, gid)

	uid, gid = New(afero.NewMemMapFs(), nopLogger()).Identity()
	require.Equal(t, os.Getuid(), uid)
	require.Equal(t, os.Getgid(), gid)
}
