package eval

import "github.com/josephlewis42/evalsh/core/expr"

// combinator decides whether the right side of a sequence runs.
type combinator int

const (
	always    combinator = iota // ;
	onSuccess                   // &&
	onFailure                   // ||
)

func (c combinator) runsRight(status int) bool {
	switch c {
	case onSuccess:
		return status == statusSuccess
	case onFailure:
		return status != statusSuccess
	default:
		return true
	}
}

func (s *Shell) sequence(e *expr.Expression, c combinator) {
	if c.runsRight(s.eval(e.Left)) {
		s.eval(e.Right)
	}
}
