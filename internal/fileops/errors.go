// errors.go defines the closed error taxonomy shared by the command grammar
// and the filesystem operations. Callers branch on Kind (or errors.Is against
// the sentinels below), never on the message text.
package fileops

import (
	"errors"
	"fmt"
)

// Kind identifies one entry of the file operation error taxonomy.
type Kind int

const (
	// KindUnderlyingOS wraps a failure reported by the filesystem layer.
	KindUnderlyingOS Kind = iota
	// KindRelativePathNotAllowed rejects an operand that starts with '.'.
	KindRelativePathNotAllowed
	// KindNotADirectory rejects a List operand that is missing or not a directory.
	KindNotADirectory
	// KindAlreadyExists rejects a create/copy/move target that already exists.
	KindAlreadyExists
	// KindNotEnoughArguments is a protocol error: missing or unpaired operands.
	KindNotEnoughArguments
	// KindUnknownAction is a protocol error: the action token is not recognised.
	KindUnknownAction
)

func (k Kind) String() string {
	switch k {
	case KindUnderlyingOS:
		return "underlying OS error"
	case KindRelativePathNotAllowed:
		return "relative path not allowed"
	case KindNotADirectory:
		return "not a directory"
	case KindAlreadyExists:
		return "already exists"
	case KindNotEnoughArguments:
		return "not enough arguments"
	case KindUnknownAction:
		return "unknown action"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrUnderlyingOS           = &Error{Kind: KindUnderlyingOS}
	ErrRelativePathNotAllowed = &Error{Kind: KindRelativePathNotAllowed}
	ErrNotADirectory          = &Error{Kind: KindNotADirectory}
	ErrAlreadyExists          = &Error{Kind: KindAlreadyExists}
	ErrNotEnoughArguments     = &Error{Kind: KindNotEnoughArguments}
	ErrUnknownAction          = &Error{Kind: KindUnknownAction}
)

// Error is the single error type returned by file operations and by the
// command grammar.
type Error struct {
	Kind Kind
	// Path is the offending operand, empty for protocol errors.
	Path string
	// Err is the wrapped OS error for KindUnderlyingOS.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUnderlyingOS && e.Err != nil:
		return e.Err.Error()
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a taxonomy error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind carried by err. Errors outside the taxonomy report
// KindUnderlyingOS.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnderlyingOS
}

// IsProtocolError reports whether err is a grammar-level error rather than a
// filesystem failure.
func IsProtocolError(err error) bool {
	k := KindOf(err)
	return k == KindNotEnoughArguments || k == KindUnknownAction
}

func relativePath(path string) error {
	return &Error{Kind: KindRelativePathNotAllowed, Path: path}
}

func notADirectory(path string) error {
	return &Error{Kind: KindNotADirectory, Path: path}
}

func alreadyExists(path string) error {
	return &Error{Kind: KindAlreadyExists, Path: path}
}

// osError wraps a filesystem failure, leaving taxonomy errors untouched.
func osError(path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: KindUnderlyingOS, Path: path, Err: err}
}

// NotEnoughArguments returns the protocol error for a missing or unpaired operand list.
func NotEnoughArguments() error {
	return &Error{Kind: KindNotEnoughArguments}
}

// UnknownAction returns the protocol error for an unrecognised action token.
func UnknownAction(action string) error {
	return &Error{Kind: KindUnknownAction, Path: action}
}
