package cmd

import (
	"io"
	"os"
	"time"

	"github.com/josephlewis42/evalsh/core/config"
	"github.com/josephlewis42/evalsh/core/env"
	"github.com/josephlewis42/evalsh/core/eval"
	"github.com/josephlewis42/evalsh/core/logger"
	"github.com/josephlewis42/evalsh/core/parse"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// shellSession bundles what every evaluating command needs.
type shellSession struct {
	cfg    *config.Configuration
	log    *zap.Logger
	shell  *eval.Shell
	parser *parse.Parser

	closers []io.Closer
}

// openSession loads the configuration and builds a shell on the process's
// own descriptors. stdin overrides the shell's standard input when set.
func openSession(cmd *cobra.Command, stdin *os.File) (*shellSession, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	sess := &shellSession{cfg: cfg}
	cores := []zapcore.Core{logger.NewConsoleCore(cmd.ErrOrStderr(), level)}
	if cfg.Logging.EventLog {
		fd, err := cfg.OpenEventLog()
		if err != nil {
			return nil, err
		}
		sess.closers = append(sess.closers, fd)
		cores = append(cores, logger.NewJSONLinesCore(fd, zapcore.DebugLevel))
	}

	base := zap.New(zapcore.NewTee(cores...))
	eval.InstallReaper(base)
	sess.log, _ = logger.NewSession(base)

	environ, err := cfg.Environ(os.Environ())
	if err != nil {
		sess.Close()
		return nil, err
	}
	environment := env.NewMapEnvFromEnvList(environ)

	sess.parser = &parse.Parser{Env: environment}
	sess.shell = eval.New(eval.Config{
		Stdin:  stdin,
		Env:    environment,
		Logger: sess.log,
	})
	return sess, nil
}

// finish waits up to timeout for background jobs and records the exit
// status.
func (s *shellSession) finish(timeout time.Duration) {
	if !s.shell.Reaper().Drain(timeout) {
		s.log.Warn("background jobs still running at exit", zap.Int("jobs", s.shell.Reaper().Live()))
	}
	exitStatus = s.shell.Status()
}

func (s *shellSession) Close() error {
	if s.shell != nil {
		s.shell.Close()
	}
	if s.log != nil {
		s.log.Sync()
	}
	for _, c := range s.closers {
		c.Close()
	}
	return nil
}
