//go:build linux

// worker_priority_linux.go - scheduling niceness for synthesis worker
// threads (Linux only); no real-time scheduling policy is set.

package sp3ctra

import "golang.org/x/sys/unix"

// workerNiceness is the niceness this process asks the scheduler for on
// its worker threads, once each is pinned via runtime.LockOSThread. Only
// takes effect when the host process has CAP_SYS_NICE or an equivalent
// elevated scheduling limit; failure is non-fatal and logged.
const workerNiceness = -10

// elevateThreadPriority lowers the calling OS thread's niceness so the
// synthesis workers are scheduled ahead of best-effort background work.
// Must be called after runtime.LockOSThread from the goroutine that will
// keep running on this thread.
func elevateThreadPriority() error {
	tid := unix.Gettid()
	return unix.Setpriority(unix.PRIO_PROCESS, tid, workerNiceness)
}
