package command

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
)

// FileOperations is the operation layer the dispatcher drives.
// *fileops.Operations satisfies it.
type FileOperations interface {
	Delete(path string) error
	List(path string) ([]string, error)
	Create(path string) error
	CreateDirectory(path string) error
	Move(src, dst string) error
	Copy(src, dst string) error
	Identity() (uid, gid int)
}

// Dispatcher routes invocations to file operations and writes their output.
type Dispatcher struct {
	ops    FileOperations
	out    io.Writer
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher writing results to out.
func NewDispatcher(ops FileOperations, out io.Writer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		ops:    ops,
		out:    out,
		logger: logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch executes inv. Operands are processed left to right and the first
// failure stops processing; operands applied before it stay applied.
func (d *Dispatcher) Dispatch(inv *Invocation) error {
	// Arity is rechecked so no operand is touched for a malformed invocation.
	if err := inv.Validate(); err != nil {
		return err
	}

	d.logger.Debug("dispatching",
		slog.String("action", inv.Action.String()),
		slog.Int("operands", len(inv.Operands)),
	)

	w := bufio.NewWriter(d.out)
	defer w.Flush()

	switch inv.Action {
	case ActionDelete:
		return d.each(inv, d.ops.Delete)
	case ActionCreate:
		return d.each(inv, d.ops.Create)
	case ActionCreateDirectory:
		return d.each(inv, d.ops.CreateDirectory)
	case ActionList:
		return d.each(inv, func(path string) error {
			names, err := d.ops.List(path)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(w, name)
			}
			fmt.Fprintln(w)
			// Flush per operand so output preceding a later failure is not lost.
			return w.Flush()
		})
	case ActionMove:
		return d.pairs(inv, d.ops.Move)
	case ActionCopy:
		return d.pairs(inv, d.ops.Copy)
	case ActionGetUID:
		uid, _ := d.ops.Identity()
		fmt.Fprintf(w, "UID: %d\n", uid)
		return w.Flush()
	case ActionGetGID:
		_, gid := d.ops.Identity()
		fmt.Fprintf(w, "GID: %d\n", gid)
		return w.Flush()
	}
	return nil
}

func (d *Dispatcher) each(inv *Invocation, fn func(path string) error) error {
	for i, path := range inv.Operands {
		if err := fn(path); err != nil {
			d.logger.Debug("operand failed",
				slog.String("action", inv.Action.String()),
				slog.Int("index", i),
				slog.String("path", path),
			)
			return err
		}
	}
	return nil
}

func (d *Dispatcher) pairs(inv *Invocation, fn func(src, dst string) error) error {
	for i, p := range inv.Pairs() {
		if err := fn(p.Source, p.Destination); err != nil {
			d.logger.Debug("pair failed",
				slog.String("action", inv.Action.String()),
				slog.Int("pair", i),
				slog.String("source", p.Source),
				slog.String("destination", p.Destination),
			)
			return err
		}
	}
	return nil
}
