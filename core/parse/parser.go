// Package parse turns shell text into expression trees.
//
// The grammar is the one described in
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
// restricted to what the evaluator can run: simple commands, the list
// operators ; && || & and |, { } groups, and redirections of descriptors
// 0, 1 and 2 to or from files. Words may be quoted; parameter expansion is
// only available when the Parser has an environment.
package parse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/evalsh/core/env"
	"github.com/josephlewis42/evalsh/core/expr"
	"mvdan.cc/sh/v3/syntax"
)

// ErrUnsupported is returned for valid shell syntax the evaluator has no
// expression for.
var ErrUnsupported = errors.New("unsupported syntax")

// Parser converts shell source to expressions.
type Parser struct {
	// Env, if set, expands $NAME and ${NAME} while parsing.
	Env env.Getenver
}

// Parse parses src with a Parser that has no environment.
func Parse(src string) (*expr.Expression, error) {
	return (&Parser{}).Parse(src)
}

// Parse parses src. Statements separated by ; or newlines become a
// right-nested Sequence; input without statements is Empty.
func (p *Parser) Parse(src string) (*expr.Expression, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, err
	}
	return p.stmts(file.Stmts)
}

// Words splits a single command line into arguments the way a shell
// tokenizes it, without any operators.
func Words(line string) ([]string, error) {
	return shlex.Split(line, true)
}

func (p *Parser) stmts(stmts []*syntax.Stmt) (*expr.Expression, error) {
	if len(stmts) == 0 {
		return expr.Nothing(), nil
	}

	head, err := p.stmt(stmts[0])
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return head, nil
	}

	rest, err := p.stmts(stmts[1:])
	if err != nil {
		return nil, err
	}
	return expr.Seq(head, rest), nil
}

func (p *Parser) stmt(stmt *syntax.Stmt) (*expr.Expression, error) {
	switch {
	case stmt.Negated:
		return nil, unsupported(stmt, "negation")
	case stmt.Coprocess:
		return nil, unsupported(stmt, "coprocess")
	}

	out, err := p.command(stmt.Cmd)
	if err != nil {
		return nil, err
	}

	// The first redirection is the outermost.
	for i := len(stmt.Redirs) - 1; i >= 0; i-- {
		r, err := p.redirection(stmt.Redirs[i])
		if err != nil {
			return nil, err
		}
		out = &expr.Expression{Kind: expr.Redirect, Redirection: r, Left: out}
	}

	if stmt.Background {
		out = expr.Bg(out)
	}
	return out, nil
}

func (p *Parser) command(cmd syntax.Command) (*expr.Expression, error) {
	switch cmd := cmd.(type) {
	case nil:
		return expr.Nothing(), nil

	case *syntax.CallExpr:
		if len(cmd.Assigns) > 0 {
			return nil, unsupported(cmd, "assignment")
		}
		var argv []string
		for _, word := range cmd.Args {
			arg, err := p.word(word)
			if err != nil {
				return nil, err
			}
			argv = append(argv, arg)
		}
		return expr.Simple(argv...), nil

	case *syntax.BinaryCmd:
		x, err := p.stmt(cmd.X)
		if err != nil {
			return nil, err
		}
		y, err := p.stmt(cmd.Y)
		if err != nil {
			return nil, err
		}

		switch cmd.Op {
		case syntax.AndStmt:
			return expr.And(x, y), nil
		case syntax.OrStmt:
			return expr.Or(x, y), nil
		case syntax.Pipe:
			return expr.PipeTo(x, y), nil
		default:
			return nil, unsupported(cmd, "operator "+cmd.Op.String())
		}

	case *syntax.Block:
		// A group runs in the current shell, so it is just its statements.
		return p.stmts(cmd.Stmts)

	default:
		return nil, unsupported(cmd, "command")
	}
}

func (p *Parser) redirection(r *syntax.Redirect) (*expr.Redirection, error) {
	out := &expr.Redirection{}

	switch r.Op {
	case syntax.RdrOut, syntax.ClbOut:
		out.Type, out.FD = expr.ToFile, expr.Stdout
	case syntax.AppOut:
		out.Type, out.FD = expr.AppendFile, expr.Stdout
	case syntax.RdrIn:
		out.Type, out.FD = expr.FromFile, expr.Stdin
	case syntax.RdrAll:
		out.Type, out.FD = expr.ToFile, expr.BothOutputs
	case syntax.AppAll:
		out.Type, out.FD = expr.AppendFile, expr.BothOutputs
	default:
		return nil, unsupported(r, "redirection "+r.Op.String())
	}

	if r.N != nil {
		if out.FD == expr.BothOutputs {
			return nil, unsupported(r, "numbered "+r.Op.String())
		}
		switch r.N.Value {
		case "0":
			out.FD = expr.Stdin
		case "1":
			out.FD = expr.Stdout
		case "2":
			out.FD = expr.Stderr
		default:
			return nil, unsupported(r, "descriptor "+r.N.Value)
		}
	}

	name, err := p.word(r.Word)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, unsupported(r, "empty file name")
	}
	out.FileName = name
	return out, nil
}

func (p *Parser) word(word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range word.Parts {
		if err := p.wordPart(&sb, part, false); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (p *Parser) wordPart(sb *strings.Builder, part syntax.WordPart, quoted bool) error {
	switch part := part.(type) {
	case *syntax.Lit:
		sb.WriteString(unescape(part.Value, quoted))

	case *syntax.SglQuoted:
		if part.Dollar {
			return unsupported(part, "$'' string")
		}
		sb.WriteString(part.Value)

	case *syntax.DblQuoted:
		if part.Dollar {
			return unsupported(part, `$"" string`)
		}
		for _, sub := range part.Parts {
			if err := p.wordPart(sb, sub, true); err != nil {
				return err
			}
		}

	case *syntax.ParamExp:
		if p.Env == nil || part.Param == nil || !simpleParam(part) {
			return unsupported(part, "expansion")
		}
		sb.WriteString(p.Env.Getenv(part.Param.Value))

	default:
		return unsupported(part, "expansion")
	}
	return nil
}

// simpleParam reports whether pe is plain $NAME or ${NAME}.
func simpleParam(pe *syntax.ParamExp) bool {
	return !pe.Excl && !pe.Length && !pe.Width &&
		pe.Index == nil && pe.Slice == nil && pe.Repl == nil &&
		pe.Names == 0 && pe.Exp == nil
}

// unescape removes the backslashes the parser keeps in literals. Inside
// double quotes a backslash only escapes $ ` " \ and newline.
func unescape(lit string, quoted bool) string {
	if !strings.Contains(lit, `\`) {
		return lit
	}

	var sb strings.Builder
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 == len(lit) {
			sb.WriteByte(c)
			continue
		}

		next := lit[i+1]
		switch {
		case next == '\n':
			// line continuation
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
		default:
			sb.WriteByte(c)
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

func unsupported(node syntax.Node, what string) error {
	return fmt.Errorf("%w: %s at %s", ErrUnsupported, what, node.Pos())
}

// Debug writes the syntax tree mvdan's parser produces for src, useful when
// a construct is rejected.
func Debug(src string) (string, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(src), "")
	if err != nil {
		return "", err
	}

	buf := &bytes.Buffer{}
	if err := syntax.DebugPrint(buf, file); err != nil {
		return "", err
	}
	return buf.String(), nil
}
