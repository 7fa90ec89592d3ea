//go:build linux

package supervisor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/edirooss/node-supervisor/internal/rosenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune a Supervisor. Zero values fall back to the defaults
// documented on each field.
type Options struct {
	// ROSDistro selects the distribution setup script sourced into every
	// spawned process's environment. Default "humble".
	ROSDistro string

	// Verbose starts an output-capture task per launched node.
	Verbose bool

	// MonitorInterval is the sleep between tree-monitor sweeps.
	// Default DefaultMonitorInterval.
	MonitorInterval time.Duration

	// LaunchTimeout bounds initial child discovery for launch trees.
	// Default DefaultLaunchTimeout.
	LaunchTimeout time.Duration

	// GraceTimeout gates SIGINT → SIGKILL escalation on terminate.
	// Default DefaultGraceTimeout.
	GraceTimeout time.Duration

	// EventQueueCapacity bounds each node's event backlog.
	// Default DefaultEventQueueCapacity.
	EventQueueCapacity int

	// envFn and argvFn override the environment provider and command-line
	// rendering. Tests only.
	envFn  func() ([]string, error)
	argvFn func(LaunchSpec) []string
}

// Supervisor owns the authoritative registry of active nodes and
// dispatches to the launcher, terminator, tree monitor and output capture.
//
// Locking discipline: mu protects the name→record map and linearizes
// record state transitions. It is held only across membership checks,
// insertions, removals and state flips; spawning, child discovery,
// signaling and waiting for process exit all happen outside the lock.
type Supervisor struct {
	log      *zap.Logger
	launcher *launcher

	verbose         bool
	monitorInterval time.Duration
	launchTimeout   time.Duration
	graceTimeout    time.Duration
	queueCapacity   int

	mu    sync.Mutex
	nodes map[string]*NodeRecord

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a Supervisor and starts its tree monitor.
func New(log *zap.Logger, opts Options) *Supervisor {
	if opts.ROSDistro == "" {
		opts.ROSDistro = rosenv.DefaultDistro
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = DefaultMonitorInterval
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = DefaultLaunchTimeout
	}
	if opts.GraceTimeout <= 0 {
		opts.GraceTimeout = DefaultGraceTimeout
	}
	if opts.EventQueueCapacity <= 0 {
		opts.EventQueueCapacity = DefaultEventQueueCapacity
	}
	envFn := opts.envFn
	if envFn == nil {
		distro := opts.ROSDistro
		envFn = func() ([]string, error) { return rosenv.Env(distro) }
	}

	log = log.Named("supervisor")
	s := &Supervisor{
		log:             log,
		launcher:        &launcher{log: log.Named("launcher"), envFn: envFn, argvFn: opts.argvFn},
		verbose:         opts.Verbose,
		monitorInterval: opts.MonitorInterval,
		launchTimeout:   opts.LaunchTimeout,
		graceTimeout:    opts.GraceTimeout,
		queueCapacity:   opts.EventQueueCapacity,
		nodes:           make(map[string]*NodeRecord),
		stop:            make(chan struct{}),
	}

	go s.monitorLoop()
	return s
}

// Launch validates the spec, reserves the name, spawns the process outside
// the registry lock and promotes the record to running. In verbose mode an
// output-capture task is attached to the new record.
func (s *Supervisor) Launch(spec LaunchSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Timeout < 0 {
		spec.Timeout = s.launchTimeout
	}

	rec, err := s.reserve(spec.Name)
	if err != nil {
		return err
	}

	stdout, stderr, err := s.launcher.launch(rec, spec)
	if err != nil {
		s.release(rec)
		return err
	}

	if s.verbose {
		rec.captureDone = make(chan struct{})
		go captureOutput(s.log.Named("capture"), rec, stdout, stderr)
	} else {
		// Keep the pipes flowing so the child never blocks on a full
		// buffer; the bytes just go nowhere.
		go discard(stdout)
		go discard(stderr)
	}

	s.transition(rec, StateStarting, StateRunning)
	return nil
}

// GetEvents drains and returns all currently-queued events for the node.
// Destructive read: an immediate re-call returns only events produced
// since.
func (s *Supervisor) GetEvents(name string) ([]NodeEvent, error) {
	rec, ok := s.lookup(name)
	if !ok {
		return nil, fmt.Errorf("node %q: %w", name, ErrNodeNotFound)
	}
	return rec.events.Drain(), nil
}

// List returns a snapshot of active node names. Order is unspecified.
func (s *Supervisor) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	return names
}

// Shutdown terminates every remaining node concurrently and stops the tree
// monitor. The context bounds the overall wait.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	var g errgroup.Group
	for _, name := range s.List() {
		g.Go(func() error { return s.Terminate(name, s.graceTimeout) })
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func discard(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	_ = r.Close()
}

// reserve inserts a starting-state record under the registry lock, failing
// on name collision. The reservation keeps concurrent launches of the same
// name out while the spawn proceeds unlocked.
func (s *Supervisor) reserve(name string) (*NodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[name]; exists {
		return nil, fmt.Errorf("node %q: %w", name, ErrNodeAlreadyExists)
	}
	rec := &NodeRecord{
		Name:     name,
		state:    StateStarting,
		events:   newEventQueue(s.queueCapacity),
		waitDone: make(chan struct{}),
	}
	s.nodes[name] = rec
	return rec, nil
}

// release drops a reservation after a failed launch.
func (s *Supervisor) release(rec *NodeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.nodes[rec.Name]; ok && cur == rec {
		delete(s.nodes, rec.Name)
	}
}

// evict removes a terminated record. Removal happens at most once even if
// monitor and terminator race.
func (s *Supervisor) evict(rec *NodeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.nodes[rec.Name]; ok && cur == rec {
		delete(s.nodes, rec.Name)
		s.log.Info("node evicted", zap.String("name", rec.Name))
	}
}

func (s *Supervisor) lookup(name string) (*NodeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.nodes[name]
	return rec, ok
}

// snapshot returns the current records for a monitor sweep.
func (s *Supervisor) snapshot() []*NodeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*NodeRecord, 0, len(s.nodes))
	for _, rec := range s.nodes {
		out = append(out, rec)
	}
	return out
}

// stateOf reads a record's state under the registry lock.
func (s *Supervisor) stateOf(rec *NodeRecord) NodeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rec.state
}

// transition flips a record's state from → to atomically. Reports whether
// the flip happened; a false return means another actor got there first.
func (s *Supervisor) transition(rec *NodeRecord, from, to NodeState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.state != from {
		return false
	}
	rec.state = to
	return true
}
