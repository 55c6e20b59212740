// client.go runs the root helper through the persona launcher on behalf of
// the sandboxed caller. Each call spawns one helper process; calls on the
// same Client are serialized.
package helper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/command"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/persona"
)

// Spawner starts a process under a persona. *persona.Launcher satisfies it.
type Spawner interface {
	Spawn(ctx context.Context, req persona.Request) (*persona.Result, error)
}

// Error is returned by the typed helpers when the helper exits nonzero.
type Error struct {
	Action   command.Action
	ExitCode int
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("helper %s exited with code %d", e.Action, e.ExitCode)
	}
	return fmt.Sprintf("helper %s exited with code %d: %s", e.Action, e.ExitCode, e.Message)
}

// Client communicates with the privileged helper.
type Client struct {
	spawner    Spawner
	locator    persona.RootLocator
	fs         afero.Fs
	helperPath string
	uid        uint32
	logger     *slog.Logger

	mu sync.Mutex
}

// NewClient creates a client that runs the helper at helperPath inside the
// located root as the elevated persona.
func NewClient(spawner Spawner, locator persona.RootLocator, fs afero.Fs, helperPath string, logger *slog.Logger) *Client {
	if helperPath == "" {
		helperPath = DefaultHelperPath
	}
	return &Client{
		spawner:    spawner,
		locator:    locator,
		fs:         fs,
		helperPath: helperPath,
		uid:        persona.RootUID,
		logger:     logger.With(slog.String("component", "helper-client")),
	}
}

// SetUID changes the persona the helper runs as. Default: persona.RootUID.
func (c *Client) SetUID(uid uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uid = uid
}

// Available returns true if a root is located and the helper binary exists in it.
func (c *Client) Available() bool {
	prefix, ok := c.locator.Locate()
	if !ok {
		return false
	}
	exists, err := afero.Exists(c.fs, prefix+c.helperPath)
	return err == nil && exists
}

// Execute runs the helper for inv and returns its exit code and output.
// A nonzero exit is reported in the Response, not as an error; errors mean
// the helper could not be run at all.
func (c *Client) Execute(ctx context.Context, inv *command.Invocation) (*Response, error) {
	if err := inv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invocation: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prefix, ok := c.locator.Locate()
	if !ok {
		return nil, persona.ErrRootNotFound
	}

	var stdout, stderr bytes.Buffer
	res, err := c.spawner.Spawn(ctx, persona.Request{
		Command:    c.helperPath,
		Args:       inv.Args(),
		UID:        c.uid,
		RootPrefix: prefix,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("helper not available: %w", err)
	}

	resp := &Response{
		ExitCode: res.ExitCode,
		Lines:    splitLines(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
	}

	c.logger.Debug("helper completed",
		slog.String("action", inv.Action.String()),
		slog.Int("exit_code", resp.ExitCode),
		slog.Int("lines", len(resp.Lines)),
	)
	return resp, nil
}

// run executes inv and converts a nonzero exit into *Error.
func (c *Client) run(ctx context.Context, action command.Action, operands ...string) (*Response, error) {
	resp, err := c.Execute(ctx, &command.Invocation{Action: action, Operands: operands})
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return resp, &Error{Action: action, ExitCode: resp.ExitCode, Message: resp.Stderr}
	}
	return resp, nil
}

// Delete removes paths.
func (c *Client) Delete(ctx context.Context, paths ...string) error {
	_, err := c.run(ctx, command.ActionDelete, paths...)
	return err
}

// List returns the entry names of each directory, one slice per path.
func (c *Client) List(ctx context.Context, paths ...string) ([][]string, error) {
	resp, err := c.run(ctx, command.ActionList, paths...)
	if err != nil {
		return nil, err
	}
	return resp.Listings(), nil
}

// Create makes empty files.
func (c *Client) Create(ctx context.Context, paths ...string) error {
	_, err := c.run(ctx, command.ActionCreate, paths...)
	return err
}

// CreateDirectory makes directories without intermediates.
func (c *Client) CreateDirectory(ctx context.Context, paths ...string) error {
	_, err := c.run(ctx, command.ActionCreateDirectory, paths...)
	return err
}

// Move relocates each pair.
func (c *Client) Move(ctx context.Context, pairs ...command.Pair) error {
	_, err := c.run(ctx, command.ActionMove, flatten(pairs)...)
	return err
}

// Copy duplicates each pair.
func (c *Client) Copy(ctx context.Context, pairs ...command.Pair) error {
	_, err := c.run(ctx, command.ActionCopy, flatten(pairs)...)
	return err
}

func flatten(pairs []command.Pair) []string {
	out := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		out = append(out, p.Source, p.Destination)
	}
	return out
}
