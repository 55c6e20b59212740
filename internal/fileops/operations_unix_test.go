//go:build unix

package fileops

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// crossDevice makes every rename fail as if src and dst were on different mounts.
type crossDevice struct {
	afero.Fs
}

func (crossDevice) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: unix.EXDEV}
}

// chmodFails rejects Chmod on one path, failing a copy midway.
type chmodFails struct {
	afero.Fs
	path string
}

func (c chmodFails) Chmod(name string, mode os.FileMode) error {
	if name == c.path {
		return &os.PathError{Op: "chmod", Path: name, Err: os.ErrPermission}
	}
	return c.Fs.Chmod(name, mode)
}

func (c chmodFails) Rename(oldname, newname string) error {
	return crossDevice{c.Fs}.Rename(oldname, newname)
}

func TestMove_CrossDeviceCopiesThenRemovesSource(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/d1/in/f", []byte("x"), 0640))
	ops := New(crossDevice{base}, nopLogger())

	require.NoError(t, ops.Move("/d1", "/d2"))

	data, err := afero.ReadFile(base, "/d2/in/f")
	require.NoError(t, err)
	require.Equal(t, "x", string(data))

	info, err := base.Stat("/d2/in/f")
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0640), info.Mode().Perm())

	exists, err := afero.Exists(base, "/d1")
	require.NoError(t, err)
	require.False(t, exists, "source must be gone after a cross-device move")
}

func TestMoveAndCopy_FailedCopyLeavesNoDestination(t *testing.T) {
	tests := []struct {
		name string
		op   func(ops *Operations, src, dst string) error
	}{
		{"move", (*Operations).Move},
		{"copy", (*Operations).Copy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(base, "/d1/in/f", []byte("x"), 0644))
			ops := New(chmodFails{Fs: base, path: "/d2/in/f"}, nopLogger())

			err := tt.op(ops, "/d1", "/d2")
			require.ErrorIs(t, err, ErrUnderlyingOS)
			require.ErrorIs(t, err, os.ErrPermission)

			data, err := afero.ReadFile(base, "/d1/in/f")
			require.NoError(t, err)
			require.Equal(t, "x", string(data), "source must be intact")

			exists, err := afero.Exists(base, "/d2")
			require.NoError(t, err)
			require.False(t, exists, "partial destination must be removed")
		})
	}
}
