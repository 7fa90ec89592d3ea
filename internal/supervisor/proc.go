package supervisor

import "github.com/shirou/gopsutil/v3/process"

// descendants walks the OS process table and returns the entire descendant
// set under pid (children, grandchildren, ...), breadth-first. A pid that
// vanished mid-walk is simply skipped; callers treat lookup failures on the
// root as transient.
func descendants(pid int32) ([]*process.Process, error) {
	root, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}

	var out []*process.Process
	queue := []*process.Process{root}
	seen := map[int32]bool{pid: true}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		children, err := p.Children()
		if err != nil {
			// No children, or the process went away between steps.
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out, nil
}

// anyRunning reports whether at least one of the given handles still maps
// to a live process. Lookup errors count as not running.
func anyRunning(procs []*process.Process) bool {
	for _, p := range procs {
		if running, err := p.IsRunning(); err == nil && running {
			return true
		}
	}
	return false
}
