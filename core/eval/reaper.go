package eval

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josephlewis42/evalsh/core/logger"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// JobKind says why a subshell was detached.
type JobKind string

const (
	JobPipeline   JobKind = "pipeline"
	JobBackground JobKind = "background"
)

const drainPoll = 5 * time.Millisecond

type jobExit struct {
	id     int
	status int
}

// Reaper collects every terminated child of the process. It is the only
// place that waits: launchers register the pid they started and receive its
// status over a channel, children nobody registered are discarded, and
// detached subshells report to it when they finish.
//
// There is one Reaper per process, see InstallReaper.
type Reaper struct {
	log *zap.Logger

	// mask is held while a child is started and registered and during each
	// collection pass, so a pass never sees a pid before its waiter exists.
	mask    sync.Mutex
	waiters map[int]chan unix.WaitStatus

	sigchld chan os.Signal
	exited  chan jobExit

	jobsMu  sync.Mutex
	jobs    map[int]JobKind
	nextJob int
}

var (
	installOnce sync.Once
	installed   *Reaper
)

// InstallReaper starts the process-wide reaper on the first call and returns
// it on every call. Only the first call's logger is used. Call it early in
// main so the SIGCHLD subscription exists before any child does.
func InstallReaper(log *zap.Logger) *Reaper {
	installOnce.Do(func() {
		if log == nil {
			log = zap.NewNop()
		}
		installed = &Reaper{
			log:     log.Named("reaper"),
			waiters: make(map[int]chan unix.WaitStatus),
			sigchld: make(chan os.Signal, 1),
			exited:  make(chan jobExit, 16),
			jobs:    make(map[int]JobKind),
		}
		signal.Notify(installed.sigchld, unix.SIGCHLD)
		go installed.run()
	})
	return installed
}

func (r *Reaper) run() {
	for {
		select {
		case <-r.sigchld:
			r.collect()
		case ex := <-r.exited:
			r.jobsMu.Lock()
			kind := r.jobs[ex.id]
			delete(r.jobs, ex.id)
			r.jobsMu.Unlock()

			r.log.Debug(logger.EventJobReaped,
				zap.Int("job", ex.id),
				zap.String("kind", string(kind)),
				zap.Int("status", ex.status))
		}
	}
}

// collect waits for children without blocking until none are left.
func (r *Reaper) collect() {
	r.mask.Lock()
	defer r.mask.Unlock()

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return
		}

		if done, ok := r.waiters[pid]; ok {
			delete(r.waiters, pid)
			done <- ws
			continue
		}
		r.log.Debug(logger.EventUnownedReaped, zap.Int("pid", pid))
	}
}

// spawn starts a program and registers it. The returned channel receives
// the program's wait status exactly once.
func (r *Reaper) spawn(path string, argv []string, attr *syscall.ProcAttr) (int, <-chan unix.WaitStatus, error) {
	r.mask.Lock()
	defer r.mask.Unlock()

	pid, err := syscall.ForkExec(path, argv, attr)
	if err != nil {
		return 0, nil, err
	}

	done := make(chan unix.WaitStatus, 1)
	r.waiters[pid] = done
	return pid, done, nil
}

// adopt registers a detached subshell and returns its job id.
func (r *Reaper) adopt(kind JobKind) int {
	r.jobsMu.Lock()
	defer r.jobsMu.Unlock()

	r.nextJob++
	r.jobs[r.nextJob] = kind
	return r.nextJob
}

// exit tells the reaper a detached subshell finished.
func (r *Reaper) exit(id, status int) {
	r.exited <- jobExit{id: id, status: status}
}

// Live returns the number of detached subshells not collected yet.
func (r *Reaper) Live() int {
	r.jobsMu.Lock()
	defer r.jobsMu.Unlock()
	return len(r.jobs)
}

// Drain waits up to timeout for every detached subshell to be collected and
// reports whether that happened.
func (r *Reaper) Drain(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(drainPoll)
	defer tick.Stop()

	for r.Live() > 0 {
		select {
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
	return true
}
