package eval

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/josephlewis42/evalsh/core/logger"
	"go.uber.org/zap"
)

var (
	// ErrRedirectionFailed wraps every failure to set up a redirection.
	ErrRedirectionFailed = errors.New("redirection failed")
	// ErrBadDescriptor is returned for descriptors other than 0, 1, 2 and
	// both outputs.
	ErrBadDescriptor = errors.New("bad file descriptor")
)

// redirect binds the target for the duration of e.Left. If the target can't
// be opened the command is skipped and the status becomes 1.
func (s *Shell) redirect(e *expr.Expression) {
	b, err := s.bindRedirection(e.Redirection)
	if err != nil {
		s.noteErr(err)
		s.diag("evalsh: %v", err)
		s.log.Debug(logger.EventRedirectFailed, zap.Stringer("expr", e), zap.Error(err))
		s.status = statusFailure
		return
	}
	defer s.release(b)

	s.eval(e.Left)
}

func (s *Shell) bindRedirection(r *expr.Redirection) (*binding, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no target", ErrRedirectionFailed)
	}

	fds, err := targetFDs(r.FD)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedirectionFailed, err)
	}

	f, err := openTarget(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedirectionFailed, err)
	}
	return s.files.bind(f, fds...), nil
}

func targetFDs(fd int) ([]int, error) {
	switch fd {
	case expr.Stdin, expr.Stdout, expr.Stderr:
		return []int{fd}, nil
	case expr.BothOutputs:
		return []int{expr.Stdout, expr.Stderr}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadDescriptor, fd)
	}
}

// openTarget opens the file named by r. Go opens files close-on-exec, so
// the result only reaches a program through the descriptor table.
func openTarget(r *expr.Redirection) (*os.File, error) {
	switch r.Type {
	case expr.ToFile:
		return os.OpenFile(r.FileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	case expr.FromFile:
		return os.Open(r.FileName)
	case expr.AppendFile:
		f, err := os.OpenFile(r.FileName, os.O_WRONLY|os.O_CREATE, 0666)
		if err != nil {
			return nil, err
		}
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown redirection type %s", r.Type)
	}
}
