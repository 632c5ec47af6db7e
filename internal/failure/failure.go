// Package failure defines the error kinds reported by jsonl-gen.
//
// Every kind is terminal: callers propagate it up to main, which logs it and
// exits with a non-zero status.
package failure

import (
	"errors"
	"fmt"
)

type Kind int

const (
	FileNotFound Kind = iota
	Format
	Value
	Type
	Count
	Directory
	DirectiveFormat
	Remove
	Write
)

var kindNames = map[Kind]string{
	FileNotFound:    "file_not_found",
	Format:          "format",
	Value:           "value",
	Type:            "type",
	Count:           "count",
	Directory:       "directory",
	DirectiveFormat: "directive_format",
	Remove:          "remove",
	Write:           "write",
}

var templates = map[Kind]string{
	FileNotFound:    "File %s does not exist.",
	Format:          "%s is not a valid json format.",
	Value:           "%s is not a valid value for %s type.",
	Type:            "%s is not a valid type. Parser supports only timestamp, str, int.",
	Count:           "%s count cannot be less than %d.",
	Directory:       "Path %s is not a directory.",
	DirectiveFormat: "%s: %s is not a valid schema format.",
	Remove:          "Removing file %s failed.",
	Write:           "Writing file %s failed.",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error makes a Kind usable as a target for errors.Is.
func (k Kind) Error() string { return k.String() }

// Error is a classified failure with a human readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + " (" + e.Err.Error() + ")"
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// New formats the message template of kind with args.
func New(kind Kind, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(templates[kind], args...)}
}

// Wrap is New with an underlying cause.
func Wrap(kind Kind, err error, args ...any) *Error {
	e := New(kind, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
