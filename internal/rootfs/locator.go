// Package rootfs locates the filesystem prefix under which the elevated
// execution environment (its shell, binaries and libraries) lives.
//
// Three layouts are recognised, checked in strict priority order:
//   - unprefixed: the canonical shell exists at its usual path; prefix is "".
//   - alternate mount: the shell exists under a fixed mount such as /var/jb.
//   - hidden bundle: exactly one entry of the application bundle directory
//     starts with a reserved marker; that entry is the prefix.
//
// Nothing found is not an error. The caller decides whether elevated
// execution is required.
package rootfs

import (
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/afero"
)

const (
	// DefaultShellPath is the canonical unprefixed shell location.
	DefaultShellPath = "/usr/bin/bash"

	// DefaultAlternatePrefix is the mount used by rootless environments.
	DefaultAlternatePrefix = "/var/jb"

	// DefaultBundleDir is scanned for a marker entry when no shell is found.
	DefaultBundleDir = "/var/containers/Bundle/Application"

	// DefaultMarker is the reserved name prefix of a hidden-bundle root.
	DefaultMarker = ".jbroot"
)

// Locator finds the elevated environment prefix.
type Locator struct {
	// ShellPath is probed unprefixed, then under each alternate prefix.
	ShellPath string

	// AlternatePrefixes are tried in order after the unprefixed path.
	AlternatePrefixes []string

	// BundleDir is scanned for an entry starting with Marker.
	BundleDir string
	Marker    string

	fs     afero.Fs
	logger *slog.Logger
}

// NewLocator creates a Locator with the default layout probing fs.
func NewLocator(fs afero.Fs, logger *slog.Logger) *Locator {
	return &Locator{
		ShellPath:         DefaultShellPath,
		AlternatePrefixes: []string{DefaultAlternatePrefix},
		BundleDir:         DefaultBundleDir,
		Marker:            DefaultMarker,
		fs:                fs,
		logger:            logger.With(slog.String("component", "rootfs")),
	}
}

// Locate returns the elevated environment prefix. ok is false when no
// environment was found. An empty prefix with ok true means the
// environment is the unprefixed system root.
func (l *Locator) Locate() (prefix string, ok bool) {
	if l.exists(l.ShellPath) {
		l.logger.Debug("found unprefixed root", slog.String("shell", l.ShellPath))
		return "", true
	}

	for _, p := range l.AlternatePrefixes {
		if p == "" {
			continue
		}
		if l.exists(p + l.ShellPath) {
			l.logger.Debug("found prefixed root", slog.String("prefix", p))
			return p, true
		}
	}

	return l.scanBundle()
}

// scanBundle looks for exactly one marker entry in BundleDir.
func (l *Locator) scanBundle() (string, bool) {
	if l.BundleDir == "" || l.Marker == "" {
		return "", false
	}

	entries, err := afero.ReadDir(l.fs, l.BundleDir)
	if err != nil {
		l.logger.Warn("failed to scan bundle directory",
			slog.String("dir", l.BundleDir),
			slog.String("error", err.Error()),
		)
		return "", false
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), l.Marker) {
			matches = append(matches, e.Name())
		}
	}

	switch len(matches) {
	case 0:
		l.logger.Debug("no elevated root found")
		return "", false
	case 1:
		root := path.Join(l.BundleDir, matches[0])
		l.logger.Debug("found bundle root", slog.String("prefix", root))
		return root, true
	default:
		l.logger.Warn("ambiguous bundle root, ignoring",
			slog.String("dir", l.BundleDir),
			slog.Any("candidates", matches),
		)
		return "", false
	}
}

func (l *Locator) exists(p string) bool {
	ok, err := afero.Exists(l.fs, p)
	if err != nil {
		l.logger.Debug("probe failed", slog.String("path", p), slog.String("error", err.Error()))
		return false
	}
	return ok
}

// Fixed is a locator that always reports the same prefix, used when the
// root is configured rather than probed. "" is the unprefixed root.
type Fixed string

// Locate returns the fixed prefix.
func (f Fixed) Locate() (string, bool) {
	return string(f), true
}
