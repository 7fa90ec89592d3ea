package supervisor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest rejects a launch whose argument combination is
	// unusable (e.g. both or neither of executable / launch file).
	ErrInvalidRequest = errors.New("exactly one of 'executable' or 'launch_file' must be specified")

	// ErrNodeAlreadyExists rejects a launch colliding on node name.
	ErrNodeAlreadyExists = errors.New("node already exists")

	// ErrNodeNotFound is returned by event queries on absent names.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNodeStarting rejects termination of a node whose launch has not
	// completed yet.
	ErrNodeStarting = errors.New("node is still starting")
)

// LaunchError wraps spawn or environment failures. No record survives a
// LaunchError; the name reservation is released before it is returned.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch node %q: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
