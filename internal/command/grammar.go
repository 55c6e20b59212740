// Package command parses the helper's argument vector into a validated
// Invocation and dispatches it to the file operations layer.
//
// Grammar: argv[0] is the program name, argv[1] selects the action by its
// long or short alias, remaining tokens are path operands.
package command

import (
	"fmt"
	"io"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/fileops"
)

// Action is one of the closed set of helper actions.
type Action string

const (
	ActionDelete          Action = "delete"
	ActionList            Action = "list"
	ActionCreate          Action = "create"
	ActionCreateDirectory Action = "createdir"
	ActionMove            Action = "move"
	ActionCopy            Action = "copy"
	ActionGetUID          Action = "getuid"
	ActionGetGID          Action = "getgid"
)

// aliases maps every accepted token to its action.
var aliases = map[string]Action{
	"delete": ActionDelete, "del": ActionDelete, "d": ActionDelete,
	"list": ActionList, "l": ActionList,
	"create": ActionCreate, "c": ActionCreate,
	"createdir": ActionCreateDirectory, "md": ActionCreateDirectory,
	"move": ActionMove, "mv": ActionMove,
	"copy": ActionCopy, "cp": ActionCopy,
	"getuid": ActionGetUID, "guid": ActionGetUID,
	"getgid": ActionGetGID, "gid": ActionGetGID,
}

// LookupAction resolves a long or short alias.
func LookupAction(token string) (Action, bool) {
	a, ok := aliases[token]
	return a, ok
}

func (a Action) String() string {
	return string(a)
}

// Valid reports whether a is one of the defined actions (by long name).
func (a Action) Valid() bool {
	switch a {
	case ActionDelete, ActionList, ActionCreate, ActionCreateDirectory,
		ActionMove, ActionCopy, ActionGetUID, ActionGetGID:
		return true
	}
	return false
}

// TakesOperands reports whether the action needs at least one path.
func (a Action) TakesOperands() bool {
	return a != ActionGetUID && a != ActionGetGID
}

// Paired reports whether operands are consumed as (source, destination) pairs.
func (a Action) Paired() bool {
	return a == ActionMove || a == ActionCopy
}

// Invocation is a parsed, validated helper request.
type Invocation struct {
	Action   Action
	Operands []string
}

// Pair is one (source, destination) operand pair of a Move or Copy.
type Pair struct {
	Source      string
	Destination string
}

// Pairs returns the operands as adjacent pairs, in order.
// Only meaningful for paired actions.
func (inv *Invocation) Pairs() []Pair {
	pairs := make([]Pair, 0, len(inv.Operands)/2)
	for i := 0; i+1 < len(inv.Operands); i += 2 {
		pairs = append(pairs, Pair{Source: inv.Operands[i], Destination: inv.Operands[i+1]})
	}
	return pairs
}

// Args returns the helper arguments (without program name) that reproduce inv.
func (inv *Invocation) Args() []string {
	args := make([]string, 0, len(inv.Operands)+1)
	args = append(args, string(inv.Action))
	return append(args, inv.Operands...)
}

// Validate checks the operand arity invariants of inv.
func (inv *Invocation) Validate() error {
	if !inv.Action.Valid() {
		return fileops.UnknownAction(string(inv.Action))
	}
	if !inv.Action.TakesOperands() {
		return nil
	}
	if len(inv.Operands) == 0 {
		return fileops.NotEnoughArguments()
	}
	if inv.Action.Paired() && len(inv.Operands)%2 != 0 {
		return fileops.NotEnoughArguments()
	}
	return nil
}

// Parse turns argv into an Invocation without writing anything.
func Parse(argv []string) (*Invocation, error) {
	return ParseWithUsage(argv, io.Discard)
}

// ParseWithUsage is Parse, writing the usage text to w when the action is
// missing, unknown, or lacks operands.
func ParseWithUsage(argv []string, w io.Writer) (*Invocation, error) {
	if len(argv) < 2 {
		WriteUsage(w)
		return nil, fileops.NotEnoughArguments()
	}

	action, ok := LookupAction(argv[1])
	if !ok {
		WriteUsage(w)
		return nil, fileops.UnknownAction(argv[1])
	}

	inv := &Invocation{Action: action}
	if !action.TakesOperands() {
		return inv, nil
	}

	if len(argv) <= 2 {
		WriteUsage(w)
		return nil, fileops.NotEnoughArguments()
	}
	inv.Operands = append([]string(nil), argv[2:]...)

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

const usage = `Usage: %s [action] [path]

Available [action]s:
del / d [path]                             : Deletes [path]
list / l [path]                            : Shows the content [path]
create / c [path]                          : Creates [path]
createdir / md [path]                      : Creates [path] as a directory
move / mv [path, list must not be odd]     : Moves files and folders
copy / cp [path, list must not be odd]     : Copies files and folders to another location
getuid / guid                              : Gets and shows the current UID
getgid / gid                               : Gets and shows the current GID

[path] can be any number of absolute paths.
No confirmation message. No progress message.
`

// ProgramName is the name shown in the usage text.
var ProgramName = "roothelper"

// WriteUsage writes the helper usage text to w.
func WriteUsage(w io.Writer) {
	fmt.Fprintf(w, usage, ProgramName)
}
