// Package expr holds the expression tree the evaluator executes.
//
// A tree is built once per input line, evaluated once and then discarded.
// Evaluation never mutates it.
package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the tag of an expression node.
type Kind int

const (
	Empty Kind = iota
	SimpleCommand
	Redirect
	Sequence
	SequenceAnd
	SequenceOr
	Pipe
	Background
)

var kindNames = map[Kind]string{
	Empty:         "Empty",
	SimpleCommand: "SimpleCommand",
	Redirect:      "Redirect",
	Sequence:      "Sequence",
	SequenceAnd:   "SequenceAnd",
	SequenceOr:    "SequenceOr",
	Pipe:          "Pipe",
	Background:    "Background",
}

// Kinds lists every valid node kind in tag order.
func Kinds() []Kind {
	return []Kind{Empty, SimpleCommand, Redirect, Sequence, SequenceAnd, SequenceOr, Pipe, Background}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the known tags.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RedirectType selects how a redirection target is opened.
type RedirectType int

const (
	// ToFile creates or truncates the target for writing.
	ToFile RedirectType = iota
	// FromFile opens an existing target for reading.
	FromFile
	// AppendFile creates the target if needed and writes after its end.
	AppendFile
)

func (t RedirectType) String() string {
	switch t {
	case ToFile:
		return "ToFile"
	case FromFile:
		return "FromFile"
	case AppendFile:
		return "AppendFile"
	default:
		return fmt.Sprintf("RedirectType(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t RedirectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Standard descriptor numbers.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2

	// BothOutputs targets stdout and stderr at once.
	BothOutputs = -1
)

// Redirection describes the file a Redirect node binds and which descriptor
// it replaces.
type Redirection struct {
	Type     RedirectType `json:"type"`
	FD       int          `json:"fd"`
	FileName string       `json:"file"`
}

// Expression is a node of the tree. Which fields are meaningful depends on
// Kind:
//
//	SimpleCommand      Argv
//	Redirect           Redirection, Left
//	Sequence*, Pipe    Left, Right
//	Background         Left
type Expression struct {
	Kind        Kind         `json:"kind"`
	Argv        []string     `json:"argv,omitempty"`
	Redirection *Redirection `json:"redirect,omitempty"`
	Left        *Expression  `json:"left,omitempty"`
	Right       *Expression  `json:"right,omitempty"`
}

var (
	// ErrMalformed is returned by Validate for trees missing required parts.
	ErrMalformed = errors.New("malformed expression")
	// ErrUnknownKind additionally marks nodes whose tag isn't a Kind.
	ErrUnknownKind = errors.New("unknown kind")
)

// Validate checks that every node carries the payload its kind requires.
func (e *Expression) Validate() error {
	if e == nil {
		return nil
	}

	switch e.Kind {
	case Empty:
		return nil
	case SimpleCommand:
		if len(e.Argv) == 0 || e.Argv[0] == "" {
			return fmt.Errorf("%w: %s without a program name", ErrMalformed, e.Kind)
		}
		return nil
	case Redirect:
		if e.Redirection == nil {
			return fmt.Errorf("%w: %s without a target", ErrMalformed, e.Kind)
		}
		if e.Left == nil {
			return fmt.Errorf("%w: %s without a command", ErrMalformed, e.Kind)
		}
		return e.Left.Validate()
	case Background:
		if e.Left == nil {
			return fmt.Errorf("%w: %s without a command", ErrMalformed, e.Kind)
		}
		return e.Left.Validate()
	case Sequence, SequenceAnd, SequenceOr, Pipe:
		if e.Left == nil || e.Right == nil {
			return fmt.Errorf("%w: %s needs two operands", ErrMalformed, e.Kind)
		}
		if err := e.Left.Validate(); err != nil {
			return err
		}
		return e.Right.Validate()
	default:
		return fmt.Errorf("%w: %w %d", ErrMalformed, ErrUnknownKind, int(e.Kind))
	}
}

// Nothing returns an Empty node.
func Nothing() *Expression {
	return &Expression{Kind: Empty}
}

// Simple returns a SimpleCommand running argv[0] with the remaining
// arguments.
func Simple(argv ...string) *Expression {
	return &Expression{Kind: SimpleCommand, Argv: argv}
}

func redirect(t RedirectType, fd int, name string, left *Expression) *Expression {
	return &Expression{
		Kind:        Redirect,
		Redirection: &Redirection{Type: t, FD: fd, FileName: name},
		Left:        left,
	}
}

// RedirectTo truncates name and binds it to fd while left runs.
func RedirectTo(fd int, name string, left *Expression) *Expression {
	return redirect(ToFile, fd, name, left)
}

// RedirectFrom binds the existing file name to fd while left runs.
func RedirectFrom(fd int, name string, left *Expression) *Expression {
	return redirect(FromFile, fd, name, left)
}

// AppendTo binds name to fd, positioned at its end, while left runs.
func AppendTo(fd int, name string, left *Expression) *Expression {
	return redirect(AppendFile, fd, name, left)
}

// RedirectBoth truncates name and binds it to stdout and stderr while left
// runs.
func RedirectBoth(name string, left *Expression) *Expression {
	return redirect(ToFile, BothOutputs, name, left)
}

// Seq runs left then right.
func Seq(left, right *Expression) *Expression {
	return &Expression{Kind: Sequence, Left: left, Right: right}
}

// And runs right only when left succeeds.
func And(left, right *Expression) *Expression {
	return &Expression{Kind: SequenceAnd, Left: left, Right: right}
}

// Or runs right only when left fails.
func Or(left, right *Expression) *Expression {
	return &Expression{Kind: SequenceOr, Left: left, Right: right}
}

// PipeTo connects the output of left to the input of right.
func PipeTo(left, right *Expression) *Expression {
	return &Expression{Kind: Pipe, Left: left, Right: right}
}

// Bg runs left without waiting for it.
func Bg(left *Expression) *Expression {
	return &Expression{Kind: Background, Left: left}
}

// String renders the tree as shell text that parses back to the same tree.
func (e *Expression) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expression) write(sb *strings.Builder) {
	if e == nil {
		return
	}

	switch e.Kind {
	case Empty:
	case SimpleCommand:
		for i, arg := range e.Argv {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(quote(arg))
		}
	case Redirect:
		// Nested redirections print outermost first, the order a parser
		// nests them in.
		var redirs []*Redirection
		inner := e
		for inner != nil && inner.Kind == Redirect && inner.Redirection != nil {
			redirs = append(redirs, inner.Redirection)
			inner = inner.Left
		}
		if inner == e {
			e.Left.writeOperand(sb)
			return
		}

		start := sb.Len()
		inner.writeOperand(sb)
		for i, r := range redirs {
			if i > 0 || sb.Len() > start {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.operator())
			sb.WriteByte(' ')
			sb.WriteString(quote(r.FileName))
		}
	case Sequence:
		if e.Left != nil && e.Left.Kind == Background {
			// "a &" already terminates the command.
			e.Left.write(sb)
			sb.WriteByte(' ')
		} else {
			e.Left.writeOperand(sb)
			sb.WriteString("; ")
		}
		e.Right.writeOperand(sb)
	case SequenceAnd, SequenceOr, Pipe:
		e.Left.writeOperand(sb)
		sb.WriteString(binaryOperators[e.Kind])
		e.Right.writeOperand(sb)
	case Background:
		e.Left.writeOperand(sb)
		sb.WriteString(" &")
	default:
		fmt.Fprintf(sb, "<%s>", e.Kind)
	}
}

var binaryOperators = map[Kind]string{
	SequenceAnd: " && ",
	SequenceOr:  " || ",
	Pipe:        " | ",
}

// writeOperand wraps compound operands in a { } group, which runs in the
// current shell and so keeps the tree's meaning. A redirection is already a
// single command.
func (e *Expression) writeOperand(sb *strings.Builder) {
	if e == nil || e.Kind == SimpleCommand || e.Kind == Empty || e.Kind == Redirect {
		e.write(sb)
		return
	}

	sb.WriteString("{ ")
	e.write(sb)
	if e.Kind == Background {
		sb.WriteString(" }")
	} else {
		sb.WriteString("; }")
	}
}

// operator returns the shell spelling of the redirection.
func (r *Redirection) operator() string {
	var op string
	switch r.Type {
	case FromFile:
		op = "<"
	case AppendFile:
		op = ">>"
	default:
		op = ">"
	}

	switch {
	case r.FD == BothOutputs:
		return "&" + op
	case r.Type == FromFile && r.FD == Stdin, r.Type != FromFile && r.FD == Stdout:
		return op
	default:
		return fmt.Sprintf("%d%s", r.FD, op)
	}
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$&|;<>()*?[]#~`") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}
