//go:build linux

package supervisor

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// DefaultMonitorInterval is the sleep between tree-monitor sweeps.
const DefaultMonitorInterval = 3 * time.Second

// monitorLoop is the single process-wide tree monitor. Each sweep snapshots
// the registry, refreshes every running node's descendant set and reaps
// nodes whose whole tree has died. The loop itself never exits on a
// per-node failure; it stops only when the supervisor shuts down.
func (s *Supervisor) monitorLoop() {
	log := s.log.Named("monitor")
	log.Info("tree monitor started", zap.Duration("interval", s.monitorInterval))

	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			log.Info("tree monitor stopped")
			return
		case <-ticker.C:
			for _, rec := range s.snapshot() {
				s.sweepRecord(log, rec)
			}
		}
	}
}

// sweepRecord refreshes one node's child set and applies death detection.
// Panics and transient process-table failures are contained to this record
// so the sweep continues with the next one.
func (s *Supervisor) sweepRecord(log *zap.Logger, rec *NodeRecord) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("monitor sweep failure: %v", r)
			rec.events.Push(EventError, msg)
			log.Error("sweep panic", zap.String("name", rec.Name), zap.Any("panic", r))
		}
	}()

	// Records still starting or already being torn down belong to their
	// launcher/terminator; the monitor only observes running nodes.
	if s.stateOf(rec) != StateRunning {
		return
	}

	s.refreshChildren(log, rec)
	s.detectTreeDeath(log, rec)
}

// refreshChildren queries the OS for the entire descendant set under the
// top-level pid and appends any pid not seen before. Descendants that have
// exited stay in place; liveness is queried when it matters.
func (s *Supervisor) refreshChildren(log *zap.Logger, rec *NodeRecord) {
	if rec.Exited() {
		return
	}

	current, err := descendants(int32(rec.PID()))
	if err != nil {
		// Transient: the process vanished mid-query. Death detection
		// decides eviction, not lookup failures.
		log.Debug("descendant lookup failed",
			zap.String("name", rec.Name), zap.Error(err))
		return
	}

	known := rec.knownChildPIDs()
	var fresh []*process.Process
	for _, c := range current {
		if !known[c.Pid] {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return
	}

	rec.addChildren(fresh...)
	for _, c := range fresh {
		rec.events.Push(EventStatus, fmt.Sprintf("Discovered new child PID=%d", c.Pid))
		log.Info("discovered new child",
			zap.String("name", rec.Name), zap.Int32("pid", c.Pid))
	}
}

// detectTreeDeath evicts a node once the top-level process has exited and
// every known child handle reports not-running.
func (s *Supervisor) detectTreeDeath(log *zap.Logger, rec *NodeRecord) {
	if !rec.Exited() || anyRunning(rec.Children()) {
		return
	}

	// Claim the record; a racing terminator wins if it got there first.
	if !s.transition(rec, StateRunning, StateTerminated) {
		return
	}

	rec.events.Push(EventStatus, fmt.Sprintf("Node '%s' stopped unexpectedly.", rec.Name))
	log.Warn("node stopped unexpectedly",
		zap.String("name", rec.Name), zap.Int("pid", rec.PID()))

	// Let the capture task flush its final lines before the record goes
	// away. The pipes are already at EOF here, so this is quick.
	rec.awaitCapture(2 * time.Second)

	s.evict(rec)
}
