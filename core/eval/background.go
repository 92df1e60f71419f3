package eval

import (
	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/josephlewis42/evalsh/core/logger"
	"go.uber.org/zap"
)

// background starts e.Left in a detached subshell and returns at once,
// leaving the status untouched. The subshell's exit status is the last OS
// error it saw, not the status of e.Left.
func (s *Shell) background(e *expr.Expression) {
	child, err := s.fork()
	if err != nil {
		s.noteErr(err)
		s.diag("evalsh: %v", err)
		return
	}

	job := s.detach(child, JobBackground, e.Left, func(c *Shell) int { return int(c.errno) })
	s.log.Debug(logger.EventBackground, zap.Int("job", job))
}
