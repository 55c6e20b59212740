// launcher.go implements synchronous process creation under a persona.
// A spawn builds its attributes, starts the child, blocks until exit and
// reports the exit status. There is no timeout and no cancellation once the
// child has started.
package persona

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"path"
	"time"
)

// Request describes one spawn.
type Request struct {
	// Command is an absolute path inside the root prefix, e.g. /usr/bin/bash.
	Command string
	// Args follow the command's base name in the child argv.
	Args []string
	// UID is applied to both the uid and gid of the child.
	UID uint32
	// RootPrefix is prepended to Command and to the PATH entries.
	RootPrefix string

	// Child stdio. Nil leaves the stream connected to the null device.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the outcome of a spawned child.
type Result struct {
	// ExitCode is the child's exit status, or -1 if it was killed by a signal.
	ExitCode int
	// Signal names the terminating signal, empty for a normal exit.
	Signal string
	// Pid is the child's process ID.
	Pid int
	// Duration is how long the child ran.
	Duration time.Duration
}

// Launcher spawns processes under a persona.
type Launcher struct {
	logger *slog.Logger
}

// NewLauncher creates a launcher.
func NewLauncher(logger *slog.Logger) *Launcher {
	return &Launcher{
		logger: logger.With(slog.String("component", "persona")),
	}
}

// spawnAttr holds everything handed to process creation for one spawn.
// It is built per call and dropped when Spawn returns; exec.Cmd owns the
// argv and env slices from then on. persona and flags are the identity
// override marker and are only recorded for logging on this platform.
type spawnAttr struct {
	persona int
	flags   int
	ctx     Context
	path    string
	argv    []string
	env     []string
}

func newSpawnAttr(req Request) *spawnAttr {
	pc := NewContext(req.UID, req.RootPrefix)
	return &spawnAttr{
		persona: EntitlementPersonaID,
		flags:   OverrideFlag,
		ctx:     pc,
		path:    pc.Executable(req.Command),
		argv:    Argv(req.Command, req.Args),
		env:     pc.Env(),
	}
}

// Spawn starts req.Command under the requested persona and waits for it to
// exit. ctx is only consulted before the child starts.
func (l *Launcher) Spawn(ctx context.Context, req Request) (*Result, error) {
	if !path.IsAbs(req.Command) {
		return nil, &SpawnError{Path: req.Command, UID: req.UID, Err: ErrInvalidCommand}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SpawnError{Path: req.Command, UID: req.UID, Err: err}
	}

	attr := newSpawnAttr(req)

	sys, err := sysProcAttr(attr)
	if err != nil {
		return nil, &SpawnError{Path: attr.path, UID: req.UID, Err: err}
	}

	cmd := &exec.Cmd{
		Path:        attr.path,
		Args:        attr.argv,
		Env:         attr.env,
		Stdin:       req.Stdin,
		Stdout:      req.Stdout,
		Stderr:      req.Stderr,
		SysProcAttr: sys,
	}

	l.logger.Debug("spawning",
		slog.String("path", attr.path),
		slog.Any("argv", attr.argv),
		slog.Int("persona", attr.persona),
		slog.Int("persona_flags", attr.flags),
		slog.Uint64("uid", uint64(attr.ctx.TargetUID)),
		slog.Uint64("gid", uint64(attr.ctx.TargetGID)),
		slog.String("root", attr.ctx.RootPrefix),
	)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		l.logger.Error("spawn failed",
			slog.String("path", attr.path),
			slog.String("error", err.Error()),
		)
		return nil, &SpawnError{Path: attr.path, UID: req.UID, Err: err}
	}

	result := &Result{Pid: cmd.Process.Pid}
	waitErr := cmd.Wait()
	result.Duration = time.Since(start)

	if err := exitStatus(cmd, waitErr, result); err != nil {
		return nil, err
	}

	l.logger.Debug("child exited",
		slog.String("path", attr.path),
		slog.Int("pid", result.Pid),
		slog.Int("exit_code", result.ExitCode),
		slog.String("signal", result.Signal),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}
