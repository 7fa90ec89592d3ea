//go:build linux

package supervisor

import (
	"os/exec"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// NodeState is the lifecycle phase of a managed node. The terminal state
// StateTerminated is reached exactly once; a terminated record is evicted
// from the registry immediately after the transition.
type NodeState string

const (
	StateStarting    NodeState = "starting"
	StateRunning     NodeState = "running"
	StateTerminating NodeState = "terminating"
	StateTerminated  NodeState = "terminated"
)

// NodeRecord is the unit managed by the registry: one top-level spawned
// process plus the tree of children it launched.
//
// Field discipline (no per-field comments repeated at use sites):
//   - children is append-only until eviction and may reference processes
//     that have since exited; liveness is queried, never cached.
//   - state transitions are linearized through the owning Supervisor's
//     transition helper.
//   - events is internally synchronized and never touched after eviction.
type NodeRecord struct {
	Name         string
	IsLaunchTree bool
	StartTime    time.Time

	cmd  *exec.Cmd
	pgid int

	// cmu guards children only. The slice is append-only until eviction;
	// readers work off snapshots.
	cmu      sync.Mutex
	children []*process.Process

	// state is linearized through the Supervisor's registry lock.
	state NodeState

	events *eventQueue

	// Closed once cmd.Wait returns; waitErr is valid afterwards.
	waitDone chan struct{}
	waitErr  error

	// Closed when the output-capture task exits; nil when capture was
	// never started (non-verbose mode).
	captureDone chan struct{}
}

// PID returns the top-level process id.
func (r *NodeRecord) PID() int { return r.cmd.Process.Pid }

// PGID returns the process-group id created at spawn (PGID = PID).
func (r *NodeRecord) PGID() int { return r.pgid }

// Exited reports whether the top-level process has been reaped.
func (r *NodeRecord) Exited() bool {
	select {
	case <-r.waitDone:
		return true
	default:
		return false
	}
}

// awaitExit blocks until the top-level process has been reaped, or until
// the timeout elapses when timeout > 0. Reports whether exit was observed.
func (r *NodeRecord) awaitExit(timeout time.Duration) bool {
	if timeout <= 0 {
		<-r.waitDone
		return true
	}
	select {
	case <-r.waitDone:
		return true
	case <-time.After(timeout):
		return false
	}
}

// awaitCapture waits (bounded) for the output-capture task to finish.
// No-op when capture was never started.
func (r *NodeRecord) awaitCapture(timeout time.Duration) {
	if r.captureDone == nil {
		return
	}
	select {
	case <-r.captureDone:
	case <-time.After(timeout):
	}
}

// Children returns a snapshot of all discovered child handles. Entries may
// reference processes that have since exited.
func (r *NodeRecord) Children() []*process.Process {
	r.cmu.Lock()
	defer r.cmu.Unlock()
	out := make([]*process.Process, len(r.children))
	copy(out, r.children)
	return out
}

// addChildren appends newly discovered handles.
func (r *NodeRecord) addChildren(procs ...*process.Process) {
	r.cmu.Lock()
	defer r.cmu.Unlock()
	r.children = append(r.children, procs...)
}

// knownChildPIDs returns the set of already-tracked child pids.
func (r *NodeRecord) knownChildPIDs() map[int32]bool {
	r.cmu.Lock()
	defer r.cmu.Unlock()
	known := make(map[int32]bool, len(r.children))
	for _, c := range r.children {
		known[c.Pid] = true
	}
	return known
}

// reap waits for the top-level process exactly once and publishes the
// result through waitDone. Run in its own goroutine right after spawn so
// the kernel never holds a zombie for us.
func (r *NodeRecord) reap() {
	r.waitErr = r.cmd.Wait()
	close(r.waitDone)
}
