// Package eval executes expression trees against real processes and file
// descriptors.
//
// A Shell carries a descriptor table and a last-status cell. Pipelines and
// background jobs run in subshells: copies of the Shell with duplicated
// descriptors and their own status cell, evaluated on their own goroutine.
// Every child process is collected by the process-wide Reaper, so code in
// the same process must not wait on children with os/exec concurrently.
package eval

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/josephlewis42/evalsh/core/env"
	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/josephlewis42/evalsh/core/logger"
	"go.uber.org/zap"
)

const (
	statusSuccess = 0
	statusFailure = 1
)

// unimplementedMessage is printed for node kinds the evaluator doesn't know.
const unimplementedMessage = "sorry, this shell is not yet implemented"

// Config configures a new Shell. Zero fields fall back to the process's own
// descriptors and environment and to a no-op logger.
type Config struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	Env    env.Source
	Logger *zap.Logger
}

// Shell evaluates expressions. A Shell is not safe for concurrent use; the
// subshells it detaches are independent values.
type Shell struct {
	files  *fdTable
	env    env.Source
	log    *zap.Logger
	reaper *Reaper

	status int
	// errno is the last OS error this shell observed.
	errno syscall.Errno
}

// New creates a Shell with status 0, installing the process-wide reaper if
// that hasn't happened yet.
func New(cfg Config) *Shell {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Env == nil {
		cfg.Env = env.NewProcessEnv()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Shell{
		files:  newFDTable(cfg.Stdin, cfg.Stdout, cfg.Stderr),
		env:    cfg.Env,
		log:    cfg.Logger,
		reaper: InstallReaper(cfg.Logger),
		status: statusSuccess,
	}
}

// Eval runs e and returns the last status afterwards. Everything except
// background parts has finished when it returns. Failures never escape as
// errors: they are reported on the shell's stderr and folded into the
// status. Malformed trees are rejected before any part of them runs.
func (s *Shell) Eval(e *expr.Expression) int {
	if err := e.Validate(); err != nil {
		if errors.Is(err, expr.ErrUnknownKind) {
			s.diag(unimplementedMessage)
		} else {
			s.diag("evalsh: %v", err)
		}
		s.log.Debug(logger.EventMalformed, zap.Error(err))
		s.status = statusFailure
		return s.status
	}

	s.log.Debug(logger.EventEval, zap.Stringer("expr", e))
	return s.eval(e)
}

// Status returns the last status.
func (s *Shell) Status() int {
	return s.status
}

// SetStatus overwrites the last status.
func (s *Shell) SetStatus(status int) {
	s.status = status
}

// Reaper returns the reaper collecting this shell's children.
func (s *Shell) Reaper() *Reaper {
	return s.reaper
}

// Close releases descriptors the shell owns. The descriptors passed in
// Config are never closed.
func (s *Shell) Close() error {
	return s.files.close()
}

func (s *Shell) eval(e *expr.Expression) int {
	if e == nil {
		return s.status
	}

	switch e.Kind {
	case expr.Empty:
	case expr.SimpleCommand:
		s.status = s.simple(e.Argv)
	case expr.Redirect:
		s.redirect(e)
	case expr.Sequence:
		s.sequence(e, always)
	case expr.SequenceAnd:
		s.sequence(e, onSuccess)
	case expr.SequenceOr:
		s.sequence(e, onFailure)
	case expr.Pipe:
		s.status = s.pipe(e)
	case expr.Background:
		s.background(e)
	default:
		s.diag(unimplementedMessage)
		s.status = statusFailure
	}
	return s.status
}

func (s *Shell) simple(argv []string) int {
	if len(argv) == 0 || argv[0] == "" {
		s.diag("evalsh: empty command")
		return statusFailure
	}
	return s.launch(argv).Status()
}

// fork copies the shell the way fork(2) copies a process: same status and
// environment, duplicated descriptors.
func (s *Shell) fork() (*Shell, error) {
	files, err := s.files.dup()
	if err != nil {
		return nil, err
	}
	return &Shell{
		files:  files,
		env:    s.env,
		log:    s.log,
		reaper: s.reaper,
		status: s.status,
	}, nil
}

// detach evaluates e in child on a new goroutine. The child reports its exit
// status to the reaper; nothing here waits for it.
func (s *Shell) detach(child *Shell, kind JobKind, e *expr.Expression, exitStatus func(*Shell) int) int {
	id := s.reaper.adopt(kind)
	s.log.Debug(logger.EventJobStarted, zap.Int("job", id), zap.String("kind", string(kind)), zap.Stringer("expr", e))

	go func() {
		status := statusFailure
		defer func() {
			if err := child.files.close(); err != nil {
				child.log.Debug("closing subshell descriptors", zap.Error(err))
			}
			child.log.Debug(logger.EventJobFinished, zap.Int("job", id), zap.String("kind", string(kind)), zap.Int("status", status))
			s.reaper.exit(id, status)
		}()

		child.eval(e)
		status = exitStatus(child)
	}()
	return id
}

// diag writes a line to the shell's current stderr.
func (s *Shell) diag(format string, args ...interface{}) {
	fmt.Fprintf(s.files.get(expr.Stderr), format+"\n", args...)
}

func (s *Shell) noteErr(err error) {
	if errno := errnoOf(err); errno != 0 {
		s.errno = errno
	}
}

func (s *Shell) release(b *binding) {
	if err := b.Release(); err != nil {
		s.log.Debug("releasing descriptor", zap.Error(err))
	}
}
