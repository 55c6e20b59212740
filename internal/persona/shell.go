package persona

import (
	"context"
	"errors"
	"io"
)

// DefaultShell is the shell run by Shell, relative to the root prefix.
const DefaultShell = "/usr/bin/bash"

// ErrRootNotFound is returned when no elevated environment could be located.
var ErrRootNotFound = errors.New("elevated root not found")

// RootLocator finds the elevated environment prefix. *rootfs.Locator satisfies it.
type RootLocator interface {
	Locate() (prefix string, ok bool)
}

// Shell runs command strings through a shell inside the located root,
// either as root or as the sandbox identity.
type Shell struct {
	Launcher *Launcher
	Locator  RootLocator

	// Path is the shell binary inside the root. Default: DefaultShell.
	Path string
	// UserUID is the identity used when not running as root. Default: MobileUID.
	UserUID uint32
}

// NewShell creates a Shell with default settings.
func NewShell(launcher *Launcher, locator RootLocator) *Shell {
	return &Shell{
		Launcher: launcher,
		Locator:  locator,
		Path:     DefaultShell,
		UserUID:  MobileUID,
	}
}

// Run executes `<shell> -c command` and waits for it.
func (s *Shell) Run(ctx context.Context, command string, asRoot bool, stdout, stderr io.Writer) (*Result, error) {
	prefix, ok := s.Locator.Locate()
	if !ok {
		return nil, ErrRootNotFound
	}

	uid := s.UserUID
	if asRoot {
		uid = RootUID
	}

	return s.Launcher.Spawn(ctx, Request{
		Command:    s.Path,
		Args:       []string{"-c", command},
		UID:        uid,
		RootPrefix: prefix,
		Stdout:     stdout,
		Stderr:     stderr,
	})
}
