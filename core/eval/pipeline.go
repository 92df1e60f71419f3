package eval

import (
	"os"

	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/josephlewis42/evalsh/core/logger"
	"go.uber.org/zap"
)

// pipe runs e.Left in a detached subshell writing into a pipe and e.Right in
// this shell reading from it. The status is e.Right's; the left side is
// never waited on.
func (s *Shell) pipe(e *expr.Expression) int {
	r, w, err := os.Pipe()
	if err != nil {
		s.noteErr(err)
		s.diag("evalsh: pipe: %v", err)
		return statusFailure
	}

	child, err := s.fork()
	if err != nil {
		r.Close()
		w.Close()
		s.noteErr(err)
		s.diag("evalsh: %v", err)
		return statusFailure
	}
	if err := child.files.replace(expr.Stdout, w); err != nil {
		s.log.Debug("closing displaced stdout", zap.Error(err))
	}

	job := s.detach(child, JobPipeline, e.Left, func(c *Shell) int { return c.status })
	s.log.Debug(logger.EventPipe, zap.Int("job", job))

	in := s.files.bind(r, expr.Stdin)
	defer s.release(in)

	return s.eval(e.Right)
}
