// Package fileops implements the primitive filesystem actions the privileged
// helper performs on behalf of the sandboxed caller: delete, list, create file,
// create directory, move, copy and identity queries.
//
// The filesystem is an explicit afero.Fs capability. The helper binary passes
// afero.NewOsFs(); tests pass an in-memory or base-path sandboxed filesystem.
// Every error returned from this package is a *Error from the closed taxonomy
// in errors.go.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

const (
	defaultFileMode os.FileMode = 0644
	defaultDirMode  os.FileMode = 0755
)

// Owner is the numeric identity applied to files created by Create.
type Owner struct {
	UID int
	GID int
}

// Operations performs validated filesystem actions against a filesystem capability.
type Operations struct {
	fs     afero.Fs
	logger *slog.Logger

	// owner is applied to newly created files when set.
	owner *Owner

	// identity reports the uid/gid of the running process.
	identity func() (uid, gid int)
}

// Option configures Operations.
type Option func(*Operations)

// WithOwner makes Create chown new files to the given identity.
func WithOwner(uid, gid int) Option {
	return func(o *Operations) {
		o.owner = &Owner{UID: uid, GID: gid}
	}
}

// WithIdentity overrides how the running process identity is determined.
func WithIdentity(fn func() (uid, gid int)) Option {
	return func(o *Operations) {
		o.identity = fn
	}
}

// New creates Operations bound to fs.
func New(fs afero.Fs, logger *slog.Logger, opts ...Option) *Operations {
	o := &Operations{
		fs:     fs,
		logger: logger.With(slog.String("component", "fileops")),
		identity: func() (int, int) {
			return os.Getuid(), os.Getgid()
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Delete removes path. Directories are removed with their contents.
// A path that does not exist is reported as an OS error.
func (o *Operations) Delete(path string) error {
	if _, err := o.lstat(path); err != nil {
		return osError(path, err)
	}
	if err := o.fs.RemoveAll(path); err != nil {
		return osError(path, err)
	}
	o.logger.Debug("deleted", slog.String("path", path))
	return nil
}

// List returns the names of the entries of the directory at path, sorted.
// Paths starting with '.' are rejected before the filesystem is consulted.
func (o *Operations) List(path string) ([]string, error) {
	if strings.HasPrefix(path, ".") {
		return nil, relativePath(path)
	}

	info, err := o.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || isNotDir(err) {
			return nil, notADirectory(path)
		}
		return nil, osError(path, err)
	}
	if !info.IsDir() {
		return nil, notADirectory(path)
	}

	entries, err := afero.ReadDir(o.fs, path)
	if err != nil {
		return nil, osError(path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Create makes an empty regular file at path and, when an owner is
// configured, assigns it to that owner. An existing path is left untouched.
func (o *Operations) Create(path string) error {
	if _, err := o.lstat(path); err == nil {
		return alreadyExists(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return osError(path, err)
	}

	f, err := o.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, defaultFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return alreadyExists(path)
		}
		return osError(path, err)
	}
	if err := f.Close(); err != nil {
		return osError(path, err)
	}

	if o.owner != nil {
		if err := o.fs.Chown(path, o.owner.UID, o.owner.GID); err != nil {
			return osError(path, fmt.Errorf("chown %s: %w", path, err))
		}
	}

	o.logger.Debug("created file", slog.String("path", path))
	return nil
}

// CreateDirectory makes a single directory. Missing parents are not created.
func (o *Operations) CreateDirectory(path string) error {
	if err := o.fs.Mkdir(path, defaultDirMode); err != nil {
		if errors.Is(err, os.ErrExist) {
			return alreadyExists(path)
		}
		return osError(path, err)
	}
	o.logger.Debug("created directory", slog.String("path", path))
	return nil
}

// Copy copies src to dst. Directories are copied recursively; modes and
// symlinks are preserved. dst must not exist. On failure any partially
// written dst is removed.
func (o *Operations) Copy(src, dst string) error {
	info, err := o.lstat(src)
	if err != nil {
		return osError(src, err)
	}
	if err := o.ensureAbsent(dst); err != nil {
		return err
	}
	if err := checkNotInside(src, dst); err != nil {
		return err
	}

	if err := o.copyTree(src, dst, info); err != nil {
		o.discard(dst)
		return osError(src, err)
	}

	o.logger.Debug("copied", slog.String("from", src), slog.String("to", dst))
	return nil
}

// Move relocates src to dst. A rename is tried first; across devices it
// falls back to copy-then-delete. Either way a pair is all-or-nothing: a
// failed copy leaves src intact and no dst behind.
func (o *Operations) Move(src, dst string) error {
	info, err := o.lstat(src)
	if err != nil {
		return osError(src, err)
	}
	if err := o.ensureAbsent(dst); err != nil {
		return err
	}
	if err := checkNotInside(src, dst); err != nil {
		return err
	}

	err = o.fs.Rename(src, dst)
	if err == nil {
		o.logger.Debug("moved", slog.String("from", src), slog.String("to", dst))
		return nil
	}
	if !isCrossDevice(err) {
		return osError(src, err)
	}

	o.logger.Debug("rename crossed devices, copying",
		slog.String("from", src),
		slog.String("to", dst),
	)
	if err := o.copyTree(src, dst, info); err != nil {
		o.discard(dst)
		return osError(src, err)
	}
	if err := o.fs.RemoveAll(src); err != nil {
		// dst is complete; removing it now could lose the only full copy.
		return osError(src, fmt.Errorf("remove source after copy: %w", err))
	}

	o.logger.Debug("moved", slog.String("from", src), slog.String("to", dst))
	return nil
}

// Identity returns the uid and gid of the running process.
func (o *Operations) Identity() (uid, gid int) {
	return o.identity()
}

// ensureAbsent returns AlreadyExists when path exists (dangling symlinks included).
func (o *Operations) ensureAbsent(path string) error {
	_, err := o.lstat(path)
	if err == nil {
		return alreadyExists(path)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return osError(path, err)
}

// checkNotInside rejects a destination inside the source tree, which would
// otherwise copy into itself without end.
func checkNotInside(src, dst string) error {
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	parent := strings.TrimSuffix(src, string(filepath.Separator)) + string(filepath.Separator)
	if strings.HasPrefix(dst, parent) {
		return osError(src, &os.PathError{Op: "copy into own subtree", Path: dst, Err: syscall.EINVAL})
	}
	return nil
}

// discard removes a partial copy, logging rather than returning failures.
func (o *Operations) discard(path string) {
	if err := o.fs.RemoveAll(path); err != nil {
		o.logger.Warn("failed to remove partial copy",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// lstat stats path without following a final symlink when fs supports it.
func (o *Operations) lstat(path string) (os.FileInfo, error) {
	if l, ok := o.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return o.fs.Stat(path)
}

func (o *Operations) copyTree(src, dst string, info os.FileInfo) error {
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return o.copySymlink(src, dst)
	case mode.IsDir():
		return o.copyDir(src, dst, info)
	case mode.IsRegular():
		return o.copyFile(src, dst, info)
	default:
		return fmt.Errorf("unsupported file type %s", mode.Type())
	}
}

func (o *Operations) copyDir(src, dst string, info os.FileInfo) error {
	// Owner write access is needed while populating; the real mode is applied last.
	if err := o.fs.Mkdir(dst, info.Mode().Perm()|0700); err != nil {
		return err
	}

	entries, err := afero.ReadDir(o.fs, src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())
		child, err := o.lstat(from)
		if err != nil {
			return err
		}
		if err := o.copyTree(from, to, child); err != nil {
			return err
		}
	}

	return o.fs.Chmod(dst, info.Mode().Perm())
}

func (o *Operations) copyFile(src, dst string, info os.FileInfo) error {
	source, err := o.fs.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := o.fs.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		return err
	}
	if err := dest.Sync(); err != nil {
		return err
	}

	// OpenFile is subject to umask.
	return o.fs.Chmod(dst, info.Mode().Perm())
}

func (o *Operations) copySymlink(src, dst string) error {
	linker, ok := o.fs.(afero.Symlinker)
	if !ok {
		return fmt.Errorf("filesystem %s does not support symlinks", o.fs.Name())
	}
	target, err := linker.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(target, dst)
}
