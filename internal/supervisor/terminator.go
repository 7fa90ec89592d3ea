//go:build linux

package supervisor

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultGraceTimeout gates the SIGINT → SIGKILL escalation.
const DefaultGraceTimeout = 5 * time.Second

// Terminate tears down a node's whole process tree and evicts its record.
// Idempotent: an absent name is a logged no-op, and a second call while
// termination is in flight returns immediately.
//
// Escalation: SIGINT to every running child and to the process group, then
// up to grace for a voluntary exit, then SIGKILL to the group with an
// unbounded wait (the kernel guarantees eventual reaping). Stragglers are
// swept with SIGKILL individually before eviction.
func (s *Supervisor) Terminate(name string, grace time.Duration) error {
	log := s.log.Named("terminator")

	rec, ok := s.lookup(name)
	if !ok {
		log.Warn("terminate requested for unknown node", zap.String("name", name))
		return nil
	}

	if grace <= 0 {
		grace = s.graceTimeout
	}

	switch {
	case s.transition(rec, StateRunning, StateTerminating):
		// We own the teardown.
	case s.stateOf(rec) == StateStarting:
		return fmt.Errorf("node %q: %w", name, ErrNodeStarting)
	default:
		// Another terminator is in flight, or the monitor already reaped it.
		log.Debug("terminate already in progress", zap.String("name", name))
		return nil
	}

	log.Info("terminating node",
		zap.String("name", name),
		zap.Int("pid", rec.PID()),
		zap.Duration("grace", grace))

	// SIGINT each currently-running child first; the group leader may be a
	// launch wrapper that does not forward signals.
	for _, c := range rec.Children() {
		if running, err := c.IsRunning(); err == nil && running {
			_ = syscall.Kill(int(c.Pid), syscall.SIGINT)
		}
	}

	groupGone := false
	if err := syscall.Kill(-rec.PGID(), syscall.SIGINT); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			// Whole group already gone; treat as terminated and fall
			// through to the straggler sweep.
			groupGone = true
		} else {
			log.Warn("SIGINT to process group failed",
				zap.String("name", name), zap.Int("pgid", rec.PGID()), zap.Error(err))
		}
	}

	switch {
	case groupGone, rec.awaitExit(grace):
		rec.events.Push(EventStatus, "Terminated gracefully.")
		log.Info("node terminated gracefully", zap.String("name", name))
	default:
		log.Warn("grace timeout expired; sending SIGKILL",
			zap.String("name", name), zap.Int("pgid", rec.PGID()))
		_ = syscall.Kill(-rec.PGID(), syscall.SIGKILL)
		rec.awaitExit(0)
		rec.events.Push(EventStatus, "Terminated forcefully.")
		log.Info("node terminated forcefully", zap.String("name", name))
	}

	// Straggler sweep: children that detached from the group or ignored
	// the group signals.
	for _, c := range rec.Children() {
		if running, err := c.IsRunning(); err == nil && running {
			log.Warn("killing leftover child",
				zap.String("name", name), zap.Int32("pid", c.Pid))
			_ = syscall.Kill(int(c.Pid), syscall.SIGKILL)
		}
	}

	rec.awaitCapture(2 * time.Second)

	s.transition(rec, StateTerminating, StateTerminated)
	s.evict(rec)
	return nil
}
