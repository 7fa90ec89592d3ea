//go:build linux

package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// LaunchSpec describes one node to launch. Exactly one of Executable and
// LaunchFile must be set; Parameters render as `--ros-args -p K:=V`
// suffixes. Timeout bounds initial child discovery only (launch files).
type LaunchSpec struct {
	Name       string
	Package    string
	Executable string
	LaunchFile string
	Parameters map[string]string
	Timeout    time.Duration
}

// Validate checks the argument combination. InvalidRequest failures are
// surfaced before anything is spawned.
func (s LaunchSpec) Validate() error {
	if s.Name == "" || s.Package == "" {
		return ErrInvalidRequest
	}
	if (s.Executable == "") == (s.LaunchFile == "") {
		return ErrInvalidRequest
	}
	return nil
}

// argv renders the ros2 CLI invocation for the spec. Parameter order is
// sorted by key so a single call renders deterministically.
func (s LaunchSpec) argv() []string {
	var cmd []string
	if s.LaunchFile != "" {
		cmd = []string{"ros2", "launch", s.Package, s.LaunchFile}
	} else {
		cmd = []string{"ros2", "run", s.Package, s.Executable}
	}

	keys := make([]string, 0, len(s.Parameters))
	for k := range s.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd = append(cmd, "--ros-args", "-p", fmt.Sprintf("%s:=%s", k, s.Parameters[k]))
	}
	return cmd
}

const childPollInterval = 500 * time.Millisecond

// DefaultLaunchTimeout bounds initial child discovery for launch trees.
const DefaultLaunchTimeout = 5 * time.Second

// launcher spawns node processes and performs initial child discovery.
// It never touches the registry; the Supervisor owns insertion/eviction.
type launcher struct {
	log *zap.Logger

	// envFn produces the environment for spawned processes. Injected so
	// tests can avoid sourcing a real ROS distribution.
	envFn func() ([]string, error)

	// argvFn overrides command-line rendering. Tests only; nil means
	// LaunchSpec.argv.
	argvFn func(LaunchSpec) []string
}

func (l *launcher) argv(spec LaunchSpec) []string {
	if l.argvFn != nil {
		return l.argvFn(spec)
	}
	return spec.argv()
}

// launch spawns the process described by spec and fills rec in place.
// rec arrives as a name reservation in StateStarting; on success it holds
// the live command, its process group, any initially discovered children
// and the pipe read ends for output capture. On failure rec is left
// untouched apart from queued events and the caller releases the
// reservation.
func (l *launcher) launch(rec *NodeRecord, spec LaunchSpec) (stdout, stderr io.ReadCloser, err error) {
	env, err := l.envFn()
	if err != nil {
		return nil, nil, &LaunchError{Name: spec.Name, Err: fmt.Errorf("environment: %w", err)}
	}

	argv := l.argv(spec)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,            // own process group so one signal reaches the whole tree
		Pdeathsig: syscall.SIGKILL, // children must not outlive the supervisor
	}

	stdout, stderr, closeWriters, err := pipes(cmd)
	if err != nil {
		return nil, nil, &LaunchError{Name: spec.Name, Err: err}
	}

	l.log.Info("launching node",
		zap.String("name", spec.Name),
		zap.Strings("argv", argv))

	if err := cmd.Start(); err != nil {
		closeWriters()
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, nil, &LaunchError{Name: spec.Name, Err: err}
	}

	// The child tree holds the write ends now; ours must go so readers see
	// EOF once the tree is done with them.
	closeWriters()

	pid := cmd.Process.Pid
	rec.cmd = cmd
	rec.pgid = pid // Setpgid with pgid 0 makes the child the group leader
	rec.IsLaunchTree = spec.LaunchFile != ""
	rec.StartTime = time.Now()
	go rec.reap()

	rec.events.Push(EventStatus, "Node process launched.")
	l.log.Info("node process launched", zap.String("name", spec.Name), zap.Int("pid", pid))

	if rec.IsLaunchTree {
		l.discoverInitialChildren(rec, spec.launchTimeout())
	}

	return stdout, stderr, nil
}

func (s LaunchSpec) launchTimeout() time.Duration {
	if s.Timeout < 0 {
		return DefaultLaunchTimeout
	}
	return s.Timeout
}

// discoverInitialChildren polls for the first non-empty descendant
// snapshot under the spawned pid. A timeout is not an error: late children
// are picked up by the tree monitor.
func (l *launcher) discoverInitialChildren(rec *NodeRecord, timeout time.Duration) {
	deadline := time.Now().Add(timeout)

	for {
		children, err := descendants(int32(rec.PID()))
		if err == nil && len(children) > 0 {
			rec.addChildren(children...)

			pids := make([]int32, len(children))
			for i, c := range children {
				pids[i] = c.Pid
			}
			rec.events.Push(EventStatus, fmt.Sprintf("Children: %v", pids))
			l.log.Info("discovered initial children",
				zap.String("name", rec.Name), zap.Int32s("pids", pids))
			return
		}

		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(childPollInterval)
	}

	rec.events.Push(EventWarning,
		fmt.Sprintf("No child processes detected within %s.", timeout))
	l.log.Warn("no child processes detected",
		zap.String("name", rec.Name), zap.Duration("timeout", timeout))
}

// pipes wires stdout/stderr to raw os.Pipe pairs instead of cmd.StdoutPipe:
// Wait() must not own the read ends, since the capture task keeps reading
// until the whole child tree has released the write ends.
//
// If any pipe fails, previously-created ones are closed here so no
// descriptors leak. closeWriters must be called after Start (success or
// failure) to drop the parent's copies of the write ends.
func pipes(cmd *exec.Cmd) (stdout, stderr io.ReadCloser, closeWriters func(), err error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stdout pipe creation failure: %w", err)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, nil, nil, fmt.Errorf("stderr pipe creation failure: %w", err)
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	closeWriters = func() {
		_ = stdoutW.Close()
		_ = stderrW.Close()
	}
	return stdoutR, stderrR, closeWriters, nil
}
