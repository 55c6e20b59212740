// Package persona spawns executables under an alternate numeric identity,
// rooted at the prefix of an elevated execution environment.
//
// The launcher is agnostic to what it runs: the root helper, a shell, or any
// other command found under the prefix. Spawning is synchronous and never
// retried. A child that starts and exits nonzero is a normal Result; only a
// failure to start the child is an error (*SpawnError).
package persona

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// RootUID is the elevated persona.
	RootUID uint32 = 0

	// MobileUID is the fixed sandbox identity the unprivileged caller runs as.
	MobileUID uint32 = 501

	// EntitlementPersonaID is the persona marker requested for every spawn.
	EntitlementPersonaID = 99

	// OverrideFlag marks the persona request as overriding the caller's identity.
	OverrideFlag = 1
)

// binDirs is the fixed PATH search order. Each entry is emitted unprefixed,
// then under the root prefix.
var binDirs = []string{
	"/usr/local/sbin",
	"/usr/local/bin",
	"/usr/sbin",
	"/usr/bin",
	"/sbin",
	"/bin",
	"/usr/bin/X11",
	"/usr/games",
}

// ErrInvalidCommand is returned when a command is not an absolute path.
var ErrInvalidCommand = errors.New("command must be an absolute path")

// Context is the identity and root for a single spawn. It is built
// immediately before spawning and not retained afterwards.
type Context struct {
	TargetUID uint32
	// TargetGID always equals TargetUID: the personas in use (root and the
	// sandbox identity) have numerically equal uid and gid.
	TargetGID  uint32
	RootPrefix string
}

// NewContext builds the spawn context for uid under rootPrefix.
// An empty rootPrefix means the unprefixed system root.
func NewContext(uid uint32, rootPrefix string) Context {
	return Context{
		TargetUID:  uid,
		TargetGID:  uid,
		RootPrefix: strings.TrimSuffix(rootPrefix, "/"),
	}
}

// Executable returns the host path of command under the root prefix.
func (c Context) Executable(command string) string {
	return c.RootPrefix + command
}

// PathEnv returns the PATH value for the child: every standard binary
// directory unprefixed, followed by its prefixed counterpart.
func (c Context) PathEnv() string {
	parts := make([]string, 0, 2*len(binDirs))
	for _, dir := range binDirs {
		parts = append(parts, dir, c.RootPrefix+dir)
	}
	return strings.Join(parts, ":")
}

// Env returns the complete child environment.
func (c Context) Env() []string {
	return []string{"PATH=" + c.PathEnv()}
}

// Argv returns the child argument vector: the command's base name followed by args.
func Argv(command string, args []string) []string {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, path.Base(command))
	return append(argv, args...)
}

// SpawnError is returned when the child process could not be started.
// It is distinct from a child that started and exited nonzero.
type SpawnError struct {
	Path string
	UID  uint32
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s as uid %d: %v", e.Path, e.UID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
