package eval

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/josephlewis42/evalsh/core/env"
	"github.com/josephlewis42/evalsh/core/logger"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// signalOffset is added to the signal number of a crashed program.
const signalOffset = 128

// Outcome is what happened to one launched program.
type Outcome struct {
	Pid int
	// ExecErr is set when the program never started.
	ExecErr syscall.Errno
	Wait    unix.WaitStatus
}

// Status maps the outcome to a shell status: the errno of a failed start,
// the exit code of a normal exit, 128+11 for a segmentation fault and the
// bare signal number for any other fatal signal.
func (o Outcome) Status() int {
	if o.ExecErr != 0 {
		return int(o.ExecErr)
	}

	switch {
	case o.Wait.Exited():
		return o.Wait.ExitStatus()
	case o.Wait.Signaled():
		sig := o.Wait.Signal()
		if sig == unix.SIGSEGV {
			return signalOffset + int(sig)
		}
		return int(sig)
	default:
		return statusFailure
	}
}

// launch starts argv[0] with the shell's descriptors and environment and
// blocks until the reaper hands back its status.
func (s *Shell) launch(argv []string) Outcome {
	path, err := env.LookPath(s.env, argv[0])
	if err == nil {
		var pid int
		var done <-chan unix.WaitStatus
		pid, done, err = s.reaper.spawn(path, argv, &syscall.ProcAttr{
			Env:   s.env.Environ(),
			Files: s.files.fds(),
		})
		if err == nil {
			s.log.Debug(logger.EventSpawn, zap.Strings("argv", argv), zap.Int("pid", pid))
			out := Outcome{Pid: pid, Wait: <-done}
			s.log.Debug(logger.EventExit, zap.Strings("argv", argv), zap.Int("pid", pid), zap.Int("status", out.Status()))
			return out
		}
	}

	s.noteErr(err)
	s.diag("evalsh: %s: %v", argv[0], err)
	s.log.Debug(logger.EventExecFailed, zap.Strings("argv", argv), zap.Error(err))
	return Outcome{ExecErr: errnoOf(err)}
}

// errnoOf extracts the OS error number behind err. Lookup failures that
// carry no errno map to what execvp would have reported.
func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, fs.ErrPermission):
		return unix.EACCES
	case errors.Is(err, env.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return unix.ENOENT
	default:
		return unix.EIO
	}
}
