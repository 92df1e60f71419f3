package expr

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree, one node per line.
func Dump(w io.Writer, e *Expression) error {
	return dump(w, e, 0)
}

func dump(w io.Writer, e *Expression, depth int) error {
	indent := strings.Repeat("  ", depth)
	if e == nil {
		_, err := fmt.Fprintf(w, "%s<nil>\n", indent)
		return err
	}

	var err error
	switch e.Kind {
	case SimpleCommand:
		_, err = fmt.Fprintf(w, "%s%s %q\n", indent, e.Kind, e.Argv)
	case Redirect:
		if e.Redirection == nil {
			_, err = fmt.Fprintf(w, "%s%s <missing>\n", indent, e.Kind)
			break
		}
		fd := fmt.Sprint(e.Redirection.FD)
		if e.Redirection.FD == BothOutputs {
			fd = "both"
		}
		_, err = fmt.Fprintf(w, "%s%s %s fd=%s %q\n", indent, e.Kind, e.Redirection.Type, fd, e.Redirection.FileName)
	default:
		_, err = fmt.Fprintf(w, "%s%s\n", indent, e.Kind)
	}
	if err != nil {
		return err
	}

	for _, child := range []*Expression{e.Left, e.Right} {
		if child == nil {
			continue
		}
		if err := dump(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
